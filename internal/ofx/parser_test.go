package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/expenses/internal/service"
	"github.com/Veraticus/expenses/internal/testutil"
)

// Sample OFX data for testing.
const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>Whole Foods Market
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>-500.00
<FITID>2024012501
<CHECKNUM>1234
<NAME>CHECK #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240128120000[0:GMT]
<TRNAMT>2000.00
<FITID>2024012801
<NAME>PAYROLL DEPOSIT
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>EUR
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>AMAZON.COM*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{
			name:          "valid bank statement",
			ofxData:       sampleBankOFX,
			expectedCount: 3,
		},
		{
			name:          "valid credit card statement",
			ofxData:       sampleCreditCardOFX,
			expectedCount: 2,
		},
		{
			name:          "invalid OFX data",
			ofxData:       "not valid OFX",
			expectedError: true,
		},
		{
			name:          "empty OFX",
			ofxData:       "",
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser(time.UTC, "USD")

			stmt, err := parser.ParseFile(context.Background(), strings.NewReader(tt.ofxData))

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Len(t, stmt.Entries, tt.expectedCount)
			}
		})
	}
}

func TestParseBankStatement(t *testing.T) {
	parser := NewParser(time.UTC, "USD")

	stmt, err := parser.ParseFile(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, stmt.Entries, 3)
	assert.Equal(t, 1, stmt.Credits)
	assert.Equal(t, []string{"1234567890"}, stmt.Accounts)

	first := stmt.Entries[0]
	assert.Equal(t, "STARBUCKS STORE #1234", first.Vendor)
	assert.Equal(t, 25.50, first.Purchase.Amount)
	assert.Equal(t, "USD", first.Purchase.Currency)
	assert.Equal(t, "ofx:1234567890:2024011501", first.Purchase.SourceID)
	assert.Equal(t, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), first.Purchase.Timestamp)
	assert.Equal(t, time.UTC, first.Purchase.Timestamp.Location())

	assert.Equal(t, "Whole Foods Market", stmt.Entries[1].Vendor)
	assert.Equal(t, 125.00, stmt.Entries[1].Purchase.Amount)
	assert.Equal(t, "CHECK #1234", stmt.Entries[2].Vendor)
	assert.Equal(t, 500.00, stmt.Entries[2].Purchase.Amount)
}

func TestParseCreditCardStatement(t *testing.T) {
	parser := NewParser(time.UTC, "USD")

	stmt, err := parser.ParseFile(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	require.Len(t, stmt.Entries, 2)
	assert.Equal(t, []string{"4111111111111111"}, stmt.Accounts)

	assert.Equal(t, "AMAZON.COM*RT4Y7HG2", stmt.Entries[0].Vendor)
	assert.Equal(t, 45.99, stmt.Entries[0].Purchase.Amount)
	assert.Equal(t, "EUR", stmt.Entries[0].Purchase.Currency)
	assert.Equal(t, "ofx:4111111111111111:CC2024011501", stmt.Entries[1].Purchase.SourceID)
}

func TestParseFile_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser(time.UTC, "USD").ParseFile(ctx, strings.NewReader(sampleBankOFX))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPreprocessOFX(t *testing.T) {
	parser := NewParser(time.UTC, "USD")

	got := parser.preprocessOFX("\n\n  <SEVERITY>Info</SEVERITY>\n<STMTTRN\n")
	assert.Equal(t, "<SEVERITY>INFO</SEVERITY>\n<STMTTRN>\n", got)
}

func TestExtractMerchantName(t *testing.T) {
	parser := NewParser(time.UTC, "USD")

	tests := []struct {
		name     string
		tx       ofxgo.Transaction
		expected string
	}{
		{
			name:     "remove POS prefix",
			tx:       ofxgo.Transaction{Name: "POS PURCHASE STARBUCKS"},
			expected: "STARBUCKS",
		},
		{
			name:     "remove DEBIT CARD prefix",
			tx:       ofxgo.Transaction{Name: "DEBIT CARD PURCHASE WHOLE FOODS"},
			expected: "WHOLE FOODS",
		},
		{
			name:     "strip authorization date",
			tx:       ofxgo.Transaction{Name: "PURCHASE AUTHORIZED ON 01/14 TARGET"},
			expected: "TARGET",
		},
		{
			name:     "keep clean name",
			tx:       ofxgo.Transaction{Name: "NETFLIX.COM"},
			expected: "NETFLIX.COM",
		},
		{
			name:     "trim whitespace",
			tx:       ofxgo.Transaction{Name: "  AMAZON.COM  "},
			expected: "AMAZON.COM",
		},
		{
			name:     "memo replaces generic name",
			tx:       ofxgo.Transaction{Name: "DEBIT", Memo: "CORNER BAKERY"},
			expected: "CORNER BAKERY",
		},
		{
			name:     "payee wins",
			tx:       ofxgo.Transaction{Name: "POS 1234", Payee: &ofxgo.Payee{Name: "Corner Bakery"}},
			expected: "Corner Bakery",
		},
		{
			name:     "empty name",
			tx:       ofxgo.Transaction{},
			expected: "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parser.extractMerchantName(tt.tx))
		})
	}
}

func TestStore(t *testing.T) {
	store := testutil.SetupTestDB(t).Storage
	ctx := context.Background()

	stmt, err := NewParser(time.UTC, "USD").ParseFile(ctx, strings.NewReader(sampleBankOFX))
	require.NoError(t, err)

	result, err := Store(ctx, store, stmt.Entries)
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 3, NewVendors: 3}, result)

	// Importing the same statement again adds nothing.
	result, err = Store(ctx, store, stmt.Entries)
	require.NoError(t, err)
	assert.Equal(t, Result{Duplicates: 3}, result)

	purchases, err := store.GetPurchases(ctx, service.PurchaseFilter{})
	require.NoError(t, err)
	require.Len(t, purchases, 3)
	assert.Equal(t, "ofx:1234567890:2024011501", purchases[0].SourceID)

	vendor, err := store.GetVendorByName(ctx, "Whole Foods Market")
	require.NoError(t, err)
	assert.Equal(t, vendor.ID, purchases[1].VendorID)
}

func TestStore_Canceled(t *testing.T) {
	store := testutil.SetupTestDB(t).Storage

	stmt, err := NewParser(time.UTC, "USD").ParseFile(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Store(ctx, store, stmt.Entries)
	require.Error(t, err)

	count, err := store.CountPurchases(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
