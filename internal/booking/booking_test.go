package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kylejryan/nail-studio-portal/internal/config"
)

func TestFor(t *testing.T) {
	b := New(config.Booking{BaseURL: "https://book.example.com/studio?location=L1"})

	assert.Equal(t, "https://book.example.com/studio?location=L1", b.For("").URL)

	got := b.For(" TM42 ")
	assert.Equal(t, "https://book.example.com/studio?location=L1&staff=TM42", got.URL)
	assert.Equal(t, "TM42", got.StaffID)

	custom := New(config.Booking{BaseURL: "https://book.example.com/", StaffParam: "employee"})
	assert.Equal(t, "https://book.example.com/?employee=a+b", custom.For("a b").URL)

	assert.Empty(t, New(config.Booking{}).For("TM1").URL)
}
