// Package ofx reads OFX/QFX bank and credit card statements.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/expenses/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Entry is a debit read from a statement. Vendor is the cleaned merchant name;
// Purchase.VendorID is resolved when the entry is stored.
type Entry struct {
	Vendor   string
	Purchase model.Purchase
}

// Statement holds the debits of one OFX file.
type Statement struct {
	Accounts []string
	Entries  []Entry
	Credits  int // skipped deposits and refunds
}

// Parser implements OFX/QFX file parsing.
type Parser struct {
	loc             *time.Location
	defaultCurrency string
}

// NewParser creates a parser. Timestamps are converted to loc and statements
// without a valid CURDEF use defaultCurrency.
func NewParser(loc *time.Location, defaultCurrency string) *Parser {
	if loc == nil {
		loc = time.Local
	}
	return &Parser{loc: loc, defaultCurrency: defaultCurrency}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML files sometimes drop the closing bracket of a bare tag line
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ParseFile parses an OFX/QFX file and returns its debits as purchases.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) (*Statement, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	stmt := &Statement{}
	accounts := make(map[string]bool)

	for _, msg := range resp.Bank {
		bank, ok := msg.(*ofxgo.StatementResponse)
		if !ok || bank.BankTranList == nil {
			continue
		}
		acct := string(bank.BankAcctFrom.AcctID)
		accounts[acct] = true
		p.collect(stmt, acct, bank.CurDef, bank.BankTranList.Transactions)
	}

	for _, msg := range resp.CreditCard {
		cc, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || cc.BankTranList == nil {
			continue
		}
		acct := string(cc.CCAcctFrom.AcctID)
		accounts[acct] = true
		p.collect(stmt, acct, cc.CurDef, cc.BankTranList.Transactions)
	}

	for acct := range accounts {
		if acct != "" {
			stmt.Accounts = append(stmt.Accounts, acct)
		}
	}
	sort.Strings(stmt.Accounts)

	slog.Info("parsed OFX file",
		"accounts", len(stmt.Accounts),
		"debits", len(stmt.Entries),
		"credits", stmt.Credits)

	return stmt, nil
}

func (p *Parser) collect(stmt *Statement, accountID string, curDef ofxgo.CurrSymbol, txns []ofxgo.Transaction) {
	currency, err := model.ParseCurrency(curDef.String())
	if err != nil {
		currency = p.defaultCurrency
	}

	for _, ofxTx := range txns {
		entry, ok := p.convertTransaction(ofxTx, accountID, currency)
		if !ok {
			stmt.Credits++
			continue
		}
		stmt.Entries = append(stmt.Entries, entry)
	}
}

// convertTransaction maps a debit to an entry. OFX uses negative amounts for
// debits; anything else is reported as not ok.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID, currency string) (Entry, bool) {
	amount, _ := ofxTx.TrnAmt.Float64()
	if amount >= 0 {
		return Entry{}, false
	}

	return Entry{
		Vendor: p.extractMerchantName(ofxTx),
		Purchase: model.Purchase{
			Timestamp: ofxTx.DtPosted.Time.In(p.loc),
			Amount:    -amount,
			Currency:  currency,
			SourceID:  SourceID(accountID, string(ofxTx.FiTID)),
		},
	}, true
}

// SourceID identifies a statement line across repeated imports.
func SourceID(accountID, fitID string) string {
	return "ofx:" + accountID + ":" + fitID
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// "MM/DD " left over from an authorization prefix
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	if name == "" {
		return "Unknown"
	}
	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
