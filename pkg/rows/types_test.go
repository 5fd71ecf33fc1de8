package rows

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumns(t *testing.T) {
	rs := []Row{
		{"region": "EMEA", "amount": 10.0, "id": 1},
		{"id": 2},
	}

	assert.Equal(t, []string{"amount", "id", "region"}, Columns(rs))
	assert.Nil(t, Columns(nil))
}

func TestNormalize(t *testing.T) {
	header := []string{"amount", "id", "region"}
	rs := []Row{
		{"region": "EMEA", "amount": 10.0, "id": 1},
		{"id": 2, "extra": "dropped"},
	}

	got := Normalize(rs, header)

	assert.Equal(t, [][]interface{}{
		{10.0, 1, "EMEA"},
		{nil, 2, nil},
	}, got)
}
