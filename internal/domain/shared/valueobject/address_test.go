package valueobject

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAddress(t *testing.T) {
	tests := []struct {
		name        string
		line1       string
		barangay    string
		city        string
		province    string
		opts        []AddressOption
		wantErr     bool
		errContains string
	}{
		{
			name:     "valid address with required fields",
			line1:    "123 Mabini Street",
			barangay: "Barangay San Isidro",
			city:     "Quezon City",
			province: "Metro Manila",
			wantErr:  false,
		},
		{
			name:     "valid address without barangay",
			line1:    "45 Rizal Avenue",
			barangay: "",
			city:     "Makati",
			province: "Metro Manila",
			wantErr:  false,
		},
		{
			name:     "valid address with postal code",
			line1:    "8 Session Road",
			barangay: "",
			city:     "Baguio",
			province: "Benguet",
			opts:     []AddressOption{WithPostalCode("2600")},
			wantErr:  false,
		},
		{
			name:     "valid address with country",
			line1:    "12 Colon Street",
			barangay: "Barangay Parian",
			city:     "Cebu City",
			province: "Cebu",
			opts:     []AddressOption{WithCountry("Philippines")},
			wantErr:  false,
		},
		{
			name:        "empty street line",
			line1:       "",
			city:        "Quezon City",
			province:    "Metro Manila",
			wantErr:     true,
			errContains: "street address cannot be empty",
		},
		{
			name:        "empty city",
			line1:       "123 Mabini Street",
			city:        "",
			province:    "Metro Manila",
			wantErr:     true,
			errContains: "city cannot be empty",
		},
		{
			name:        "street line too long",
			line1:       strings.Repeat("a", 501),
			city:        "Quezon City",
			province:    "Metro Manila",
			wantErr:     true,
			errContains: "cannot exceed 500 characters",
		},
		{
			name:        "city too long",
			line1:       "123 Mabini Street",
			city:        strings.Repeat("a", 101),
			province:    "Metro Manila",
			wantErr:     true,
			errContains: "cannot exceed 100 characters",
		},
		{
			name:        "postal code too long",
			line1:       "123 Mabini Street",
			city:        "Quezon City",
			province:    "Metro Manila",
			opts:        []AddressOption{WithPostalCode(strings.Repeat("1", 21))},
			wantErr:     true,
			errContains: "postal code cannot exceed 20 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := NewAddress(tt.line1, tt.barangay, tt.city, tt.province, tt.opts...)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.line1, addr.Line1())
			assert.Equal(t, tt.city, addr.City())
		})
	}
}

func TestAddressDefaultsCountry(t *testing.T) {
	addr, err := NewAddress("123 Mabini Street", "", "Quezon City", "Metro Manila")
	require.NoError(t, err)
	assert.Equal(t, "Philippines", addr.Country())
}

func TestAddressTrimsWhitespace(t *testing.T) {
	addr, err := NewAddress("  123 Mabini Street  ", " Barangay San Isidro ", " Quezon City ", " Metro Manila ")
	require.NoError(t, err)
	assert.Equal(t, "123 Mabini Street", addr.Line1())
	assert.Equal(t, "Barangay San Isidro", addr.Barangay())
	assert.Equal(t, "Quezon City", addr.City())
	assert.Equal(t, "Metro Manila", addr.Province())
}

func TestEmptyAddress(t *testing.T) {
	addr := EmptyAddress()
	assert.True(t, addr.IsEmpty())
	assert.Equal(t, "", addr.FullAddress())
	assert.Equal(t, "", addr.ShortAddress())
}

func TestMustNewAddress(t *testing.T) {
	t.Run("valid address", func(t *testing.T) {
		addr := MustNewAddress("123 Mabini Street", "", "Quezon City", "Metro Manila")
		assert.Equal(t, "Quezon City", addr.City())
	})

	t.Run("panics on invalid address", func(t *testing.T) {
		assert.Panics(t, func() {
			MustNewAddress("", "", "Quezon City", "Metro Manila")
		})
	})
}

func TestAddressFullAddress(t *testing.T) {
	addr, err := NewAddressFull("123 Mabini Street", "Barangay San Isidro", "Quezon City", "Metro Manila", "1100", "Philippines")
	require.NoError(t, err)
	assert.Equal(t, "123 Mabini Street, Barangay San Isidro, Quezon City, Metro Manila 1100, Philippines", addr.FullAddress())
}

func TestAddressShortAddress(t *testing.T) {
	addr, err := NewAddress("123 Mabini Street", "Barangay San Isidro", "Quezon City", "Metro Manila")
	require.NoError(t, err)
	assert.Equal(t, "123 Mabini Street, Quezon City", addr.ShortAddress())
}

func TestAddressEquals(t *testing.T) {
	a1 := MustNewAddress("123 Mabini Street", "", "Quezon City", "Metro Manila")
	a2 := MustNewAddress("123 Mabini Street", "", "Quezon City", "Metro Manila")
	a3 := MustNewAddress("45 Rizal Avenue", "", "Makati", "Metro Manila")

	assert.True(t, a1.Equals(a2))
	assert.False(t, a1.Equals(a3))
}

func TestAddressSameCity(t *testing.T) {
	a1 := MustNewAddress("123 Mabini Street", "", "Quezon City", "Metro Manila")
	a2 := MustNewAddress("77 Timog Avenue", "", "Quezon City", "Metro Manila")
	a3 := MustNewAddress("45 Rizal Avenue", "", "Makati", "Metro Manila")

	assert.True(t, a1.SameCity(a2))
	assert.False(t, a1.SameCity(a3))
}

func TestAddressJSON(t *testing.T) {
	t.Run("marshal and unmarshal round trip", func(t *testing.T) {
		original := MustNewAddress("123 Mabini Street", "Barangay San Isidro", "Quezon City", "Metro Manila",
			WithPostalCode("1100"))

		data, err := json.Marshal(original)
		require.NoError(t, err)

		var decoded Address
		err = json.Unmarshal(data, &decoded)
		require.NoError(t, err)
		assert.True(t, original.Equals(decoded))
	})

	t.Run("unmarshal empty object yields empty address", func(t *testing.T) {
		var addr Address
		err := json.Unmarshal([]byte(`{}`), &addr)
		require.NoError(t, err)
		assert.True(t, addr.IsEmpty())
	})

	t.Run("unmarshal invalid address fails validation", func(t *testing.T) {
		var addr Address
		err := json.Unmarshal([]byte(`{"line1":"","city":"Quezon City","province":"x"}`), &addr)
		// line1 present but empty with province set means validation runs
		assert.Error(t, err)
	})
}

func TestAddressScan(t *testing.T) {
	t.Run("scan JSON string", func(t *testing.T) {
		var addr Address
		err := addr.Scan(`{"line1":"123 Mabini Street","city":"Quezon City","province":"Metro Manila"}`)
		require.NoError(t, err)
		assert.Equal(t, "Quezon City", addr.City())
	})

	t.Run("scan nil yields empty address", func(t *testing.T) {
		var addr Address
		err := addr.Scan(nil)
		require.NoError(t, err)
		assert.True(t, addr.IsEmpty())
	})

	t.Run("scan null literal yields empty address", func(t *testing.T) {
		var addr Address
		err := addr.Scan([]byte("null"))
		require.NoError(t, err)
		assert.True(t, addr.IsEmpty())
	})

	t.Run("scan invalid type fails", func(t *testing.T) {
		var addr Address
		err := addr.Scan(42)
		assert.Error(t, err)
	})
}

func TestAddressValue(t *testing.T) {
	t.Run("empty address stores NULL", func(t *testing.T) {
		val, err := EmptyAddress().Value()
		require.NoError(t, err)
		assert.Nil(t, val)
	})

	t.Run("non-empty address stores JSON", func(t *testing.T) {
		addr := MustNewAddress("123 Mabini Street", "", "Quezon City", "Metro Manila")
		val, err := addr.Value()
		require.NoError(t, err)
		assert.Contains(t, string(val.([]byte)), "Mabini")
	})
}
