package parser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smsledger/internal/models"
)

var testTime = time.Date(2024, 3, 5, 13, 15, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParse_EndToEnd(t *testing.T) {
	p := NewSMSParser()
	body := "Rs.500.00 debited from your account for UPI to Zomato Online ref no 123456789012 Avl Bal Rs 5,000.00"

	got := p.Parse(body, "VM-HDFCBK", testTime)
	require.NotNil(t, got)

	assert.True(t, got.Amount.Equal(dec("500.00")), "amount %s", got.Amount)
	assert.Equal(t, models.TypeDebit, got.Type)
	assert.Equal(t, "Zomato Online", got.Merchant)
	assert.Equal(t, "123456789012", got.ReferenceNumber)
	require.NotNil(t, got.AvailableBalance)
	assert.True(t, got.AvailableBalance.Equal(dec("5000.00")))
	assert.Equal(t, "VM-HDFCBK", got.Sender)
	assert.Equal(t, testTime, got.Timestamp)
}

func TestParse_NotATransaction(t *testing.T) {
	p := NewSMSParser()

	bodies := []string{
		"Your OTP for login is 482910. Do not share it with anyone.",
		"Get 50% cashback on Rs 500 recharge. Hurry!",
		"Your statement for Feb is ready. Total due Rs 12,000.00",
		"",
	}
	for _, b := range bodies {
		assert.Nil(t, p.Parse(b, "VM-HDFCBK", testTime), b)
	}
}

func TestParse_NoAmount(t *testing.T) {
	p := NewSMSParser()
	assert.Nil(t, p.Parse("Your account has been debited. Contact branch for details.", "HDFCBK", testTime))
}

func TestParse_AmountSkipsBalance(t *testing.T) {
	p := NewSMSParser()

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "keyword then amount",
			body: "Your a/c XX1234 debited Rs 500.00 on 05-03-24. Avl Bal Rs 10,000.00",
			want: "500.00",
		},
		{
			name: "balance first",
			body: "Avl Bal Rs 10,000.00. A/c XX1234 debited for Rs 750 at AMAZON",
			want: "750",
		},
		{
			name: "separators stripped",
			body: "Acct XX12 debited Rs 1,234.50 on 01-Mar",
			want: "1234.50",
		},
		{
			name: "credit with INR",
			body: "INR 25,000.00 credited to your A/c XX9876 by NEFT from ACME CORP. Bal INR 40,000.00",
			want: "25000.00",
		},
		{
			name: "rupee sign without fraction",
			body: "You have sent ₹250 to rahul@okaxis",
			want: "250",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.body, "HDFCBK", testTime)
			require.NotNil(t, got)
			assert.True(t, got.Amount.Equal(dec(tt.want)), "got %s want %s", got.Amount, tt.want)
		})
	}
}

func TestExtractType(t *testing.T) {
	tests := []struct {
		body   string
		want   models.TransactionType
		wantOK bool
	}{
		{"Rs 100 credited to a/c", models.TypeCredit, true},
		{"Rs 100 DEPOSITED in your account", models.TypeCredit, true},
		{"You received Rs 100", models.TypeCredit, true},
		{"Rs 100 debited", models.TypeDebit, true},
		{"Rs 100 withdrawn at ATM", models.TypeDebit, true},
		{"Paid Rs 100 to Swiggy", models.TypeDebit, true},
		{"Sent Rs 100 to mom", models.TypeDebit, true},
		// credit group wins when both appear
		{"Rs 100 debited from A/c 1 and credited to A/c 2", models.TypeCredit, true},
		{"Rs 100 is due tomorrow", "", false},
		{"Your parcel was discredited", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			out := &ParsedTransaction{}
			ok := extractType(tt.body, out)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, out.Type)
		})
	}
}

func TestExtractMerchant(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantRaw string
		want    string
	}{
		{
			name:    "upi merchant after account jargon",
			body:    "Rs.500.00 debited from your account for UPI to Zomato Online ref no 123456789012",
			wantRaw: "Zomato Online",
			want:    "Zomato Online",
		},
		{
			name:    "suffixes stripped",
			body:    "Rs 1,299 spent on card at RELIANCE RETAIL PVT LTD on 05-03",
			wantRaw: "RELIANCE RETAIL PVT LTD",
			want:    "Reliance",
		},
		{
			name:    "credit from person",
			body:    "Rs 2,000 credited to A/c XX12 from RAHUL SHARMA UPI Ref 412345678901",
			wantRaw: "RAHUL SHARMA",
			want:    "Rahul Sharma",
		},
		{
			name:    "india suffix",
			body:    "Paid Rs 350 to Swiggy India. Ref 99887766",
			wantRaw: "Swiggy India",
			want:    "Swiggy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &ParsedTransaction{}
			require.True(t, extractMerchant(tt.body, out))
			assert.Equal(t, tt.wantRaw, out.MerchantRaw)
			assert.Equal(t, tt.want, out.Merchant)
		})
	}
}

func TestExtractMerchant_RejectsJargon(t *testing.T) {
	bodies := []string{
		"Rs 500 transferred to Net Banking",
		"Rs 500 debited from A/c XX1234 to Net Banking on 01-01-24",
		"Rs 2000 withdrawn at ATM on 01-01",
		"Rs 500 debited via IMPS",
		"Rs 500 debited by POS",
		"Rs 500 paid to Mob Bk",
	}
	for _, b := range bodies {
		out := &ParsedTransaction{}
		assert.False(t, extractMerchant(b, out), b)
		assert.Empty(t, out.Merchant, b)
	}
}

func TestParse_NetBankingHasNoMerchant(t *testing.T) {
	got := NewSMSParser().Parse("Rs 500 debited from A/c XX1234 to Net Banking", "HDFCBK", testTime)
	require.NotNil(t, got)
	assert.Empty(t, got.Merchant)
	assert.Empty(t, got.MerchantRaw)
}

func TestExtractVPA(t *testing.T) {
	out := &ParsedTransaction{}
	require.True(t, extractVPA("Rs 250 sent to rahul.s@okaxis on 01-01", out))
	assert.Equal(t, "rahul.s@okaxis", out.VPA)

	out = &ParsedTransaction{}
	assert.False(t, extractVPA("Rs 250 sent to rahul", out))
}

func TestExtractReference(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"Rs 100 debited. Ref No 123456789012", "123456789012"},
		{"Rs 100 debited. UTR: AXN1234567", "AXN1234567"},
		{"Rs 100 debited. Txn# 99887766", "99887766"},
		{"Rs 100 paid. UPI/412345678901/Zomato", "412345678901"},
		{"Transaction amount Rs 100 debited", ""},
		{"Rs 100 debited ref 123", ""},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			out := &ParsedTransaction{}
			ok := extractReference(tt.body, out)
			assert.Equal(t, tt.want != "", ok)
			assert.Equal(t, tt.want, out.ReferenceNumber)
		})
	}
}

func TestExtractBalance(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"Avl Bal Rs 5,000.00", "5000.00"},
		{"Available Balance: INR 12.50", "12.50"},
		{"Bal-Rs.100", "100"},
		{"Avl bal: 0.00", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			out := &ParsedTransaction{}
			require.True(t, extractBalance(tt.body, out))
			require.NotNil(t, out.AvailableBalance)
			assert.True(t, out.AvailableBalance.Equal(dec(tt.want)))
		})
	}

	out := &ParsedTransaction{}
	assert.False(t, extractBalance("Rs 500 debited", out))
	assert.Nil(t, out.AvailableBalance)
}

func TestCleanMerchantName(t *testing.T) {
	assert.Equal(t, "Big Bazaar", CleanMerchantName("BIG BAZAAR RETAIL LTD."))
	assert.Equal(t, "Mart", CleanMerchantName("MART"))
	assert.Equal(t, "Amazon Pay", CleanMerchantName("amazon pay india pvt ltd"))
}

func TestParsedTransaction_Transaction(t *testing.T) {
	got := NewSMSParser().Parse("Paid Rs 350 to Swiggy. UPI Ref 412345678901", "JD-PAYTM", testTime)
	require.NotNil(t, got)

	txn := got.Transaction("abc")
	assert.Equal(t, "abc", txn.ID)
	assert.Equal(t, "Swiggy", txn.MerchantName)
	assert.Equal(t, "412345678901", txn.ReferenceNumber)
	assert.True(t, txn.NeedsReview)
	assert.Empty(t, txn.Category)
}
