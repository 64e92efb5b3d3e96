package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a value object representing a physical address.
// It is immutable - all operations return new Address instances.
// Fields follow the Philippine convention: street line, barangay, city,
// province, postal code.
type Address struct {
	line1      string
	barangay   string
	city       string
	province   string
	postalCode string
	country    string
}

// AddressOption is a functional option for configuring Address
type AddressOption func(*Address)

// WithPostalCode sets the postal code for the address
func WithPostalCode(postalCode string) AddressOption {
	return func(a *Address) {
		a.postalCode = strings.TrimSpace(postalCode)
	}
}

// WithCountry sets the country for the address
func WithCountry(country string) AddressOption {
	return func(a *Address) {
		a.country = strings.TrimSpace(country)
	}
}

// NewAddress creates a new Address with the required fields.
// Line1 and city are required; barangay, province and postal code are optional.
func NewAddress(line1, barangay, city, province string, opts ...AddressOption) (Address, error) {
	line1 = strings.TrimSpace(line1)
	barangay = strings.TrimSpace(barangay)
	city = strings.TrimSpace(city)
	province = strings.TrimSpace(province)

	if line1 == "" {
		return Address{}, fmt.Errorf("street address cannot be empty")
	}
	if len(line1) > 500 {
		return Address{}, fmt.Errorf("street address cannot exceed 500 characters")
	}
	if city == "" {
		return Address{}, fmt.Errorf("city cannot be empty")
	}
	if len(city) > 100 {
		return Address{}, fmt.Errorf("city cannot exceed 100 characters")
	}
	if len(barangay) > 100 {
		return Address{}, fmt.Errorf("barangay cannot exceed 100 characters")
	}
	if len(province) > 100 {
		return Address{}, fmt.Errorf("province cannot exceed 100 characters")
	}

	addr := Address{
		line1:    line1,
		barangay: barangay,
		city:     city,
		province: province,
		country:  "Philippines",
	}

	for _, opt := range opts {
		opt(&addr)
	}

	if len(addr.postalCode) > 20 {
		return Address{}, fmt.Errorf("postal code cannot exceed 20 characters")
	}
	if len(addr.country) > 100 {
		return Address{}, fmt.Errorf("country cannot exceed 100 characters")
	}

	return addr, nil
}

// NewAddressFull creates a new Address with all fields including country
func NewAddressFull(line1, barangay, city, province, postalCode, country string) (Address, error) {
	return NewAddress(line1, barangay, city, province, WithPostalCode(postalCode), WithCountry(country))
}

// MustNewAddress creates a new Address, panics on error
func MustNewAddress(line1, barangay, city, province string, opts ...AddressOption) Address {
	addr, err := NewAddress(line1, barangay, city, province, opts...)
	if err != nil {
		panic(err)
	}
	return addr
}

// EmptyAddress returns an empty address (for optional address fields)
func EmptyAddress() Address {
	return Address{}
}

// Line1 returns the street line
func (a Address) Line1() string {
	return a.line1
}

// Barangay returns the barangay
func (a Address) Barangay() string {
	return a.barangay
}

// City returns the city or municipality
func (a Address) City() string {
	return a.city
}

// Province returns the province
func (a Address) Province() string {
	return a.province
}

// PostalCode returns the postal code
func (a Address) PostalCode() string {
	return a.postalCode
}

// Country returns the country
func (a Address) Country() string {
	return a.country
}

// IsEmpty returns true if the address is empty (all fields are blank)
func (a Address) IsEmpty() bool {
	return a.line1 == "" && a.barangay == "" && a.city == "" && a.province == ""
}

// FullAddress returns the complete formatted address string
// Format: Line1, Barangay, City, Province PostalCode, Country
func (a Address) FullAddress() string {
	if a.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, 5)
	if a.line1 != "" {
		parts = append(parts, a.line1)
	}
	if a.barangay != "" {
		parts = append(parts, a.barangay)
	}
	if a.city != "" {
		parts = append(parts, a.city)
	}
	if a.province != "" {
		if a.postalCode != "" {
			parts = append(parts, a.province+" "+a.postalCode)
		} else {
			parts = append(parts, a.province)
		}
	} else if a.postalCode != "" {
		parts = append(parts, a.postalCode)
	}
	if a.country != "" {
		parts = append(parts, a.country)
	}
	return strings.Join(parts, ", ")
}

// ShortAddress returns a shortened address (Line1 + City)
func (a Address) ShortAddress() string {
	if a.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, 2)
	if a.line1 != "" {
		parts = append(parts, a.line1)
	}
	if a.city != "" {
		parts = append(parts, a.city)
	}
	return strings.Join(parts, ", ")
}

// String returns a string representation of the address
func (a Address) String() string {
	return a.FullAddress()
}

// Equals returns true if both addresses are equal
func (a Address) Equals(other Address) bool {
	return a.line1 == other.line1 &&
		a.barangay == other.barangay &&
		a.city == other.city &&
		a.province == other.province &&
		a.postalCode == other.postalCode &&
		a.country == other.country
}

// SameCity returns true if both addresses are in the same city and province
func (a Address) SameCity(other Address) bool {
	return a.province == other.province && a.city == other.city
}

// addressJSON is used for JSON marshaling/unmarshaling
type addressJSON struct {
	Line1      string `json:"line1"`
	Barangay   string `json:"barangay,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(addressJSON{
		Line1:      a.line1,
		Barangay:   a.barangay,
		City:       a.city,
		Province:   a.province,
		PostalCode: a.postalCode,
		Country:    a.country,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
// Delegates to NewAddressFull so all validation rules apply; empty
// payloads yield an empty address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var v addressJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	if v.Line1 == "" && v.Barangay == "" && v.City == "" && v.Province == "" {
		*a = EmptyAddress()
		return nil
	}

	addr, err := NewAddressFull(v.Line1, v.Barangay, v.City, v.Province, v.PostalCode, v.Country)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// Value implements driver.Valuer for database storage
// Stores as JSON string
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for database retrieval
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = EmptyAddress()
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}

	if len(data) == 0 || string(data) == "null" {
		*a = EmptyAddress()
		return nil
	}

	return json.Unmarshal(data, a)
}
