package sender

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAuthentic(t *testing.T) {
	a := New("MYCOOP")

	tests := []struct {
		sender string
		want   bool
	}{
		{"VM-HDFCBK", true},
		{"HDFCBK", true},
		{"ad-icicib-s", true},
		{"JD-PAYTM", true},
		{"PHONE", true}, // contained by PHONEPE
		{"BX-MYCOOP", true},
		{"9876543210", false},
		{"AB", false},
		{"", false},
		{"VK-RANDOM", false},
	}

	for _, tt := range tests {
		t.Run(tt.sender, func(t *testing.T) {
			assert.Equal(t, tt.want, a.IsAuthentic(tt.sender))
		})
	}
}

func TestIsSpam(t *testing.T) {
	a := New()

	assert.True(t, a.IsSpam("9876543210"))
	assert.True(t, a.IsSpam("WIN-FREE-OFFER"))
	assert.True(t, a.IsSpam("vm-promo"))
	assert.True(t, a.IsSpam("GIFTSHOP"))
	assert.False(t, a.IsSpam("VM-HDFCBK"))
	assert.False(t, a.IsSpam("98765432101"))
	assert.False(t, a.IsSpam("+919876543210"))
}

func TestAllow(t *testing.T) {
	a := New()

	assert.True(t, a.Allow("VM-HDFCBK"))
	assert.False(t, a.Allow("9876543210"))
	assert.False(t, a.Allow("HDFCBK-OFFER"))
}

func TestAllow_EveryBuiltInSender(t *testing.T) {
	a := New()
	for _, s := range trustedSenders {
		assert.True(t, a.Allow("VM-"+s), s)
	}
	assert.False(t, a.Allow("VM-FREECHARGE"))
}
