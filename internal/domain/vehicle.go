package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// FeatureGroup is a titled list of vehicle features, e.g. "Safety".
type FeatureGroup struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// Vehicle is one inventory record. ID is opaque and assigned on create.
type Vehicle struct {
	ID            string         `json:"id"`
	Make          string         `json:"make"`
	Model         string         `json:"model"`
	Trim          string         `json:"trim,omitempty"`
	Year          int            `json:"year,omitempty"`
	Price         float64        `json:"price"`
	Mileage       float64        `json:"mileage"`
	FuelType      string         `json:"fuelType,omitempty"`
	Transmission  string         `json:"transmission,omitempty"`
	ExteriorColor string         `json:"exteriorColor,omitempty"`
	InteriorColor string         `json:"interiorColor,omitempty"`
	VIN           string         `json:"vin,omitempty"`
	StockNumber   string         `json:"stockNumber,omitempty"`
	Engine        string         `json:"engine,omitempty"`
	Drivetrain    string         `json:"drivetrain,omitempty"`
	BodyType      string         `json:"bodyType,omitempty"`
	Condition     string         `json:"condition,omitempty"`
	Description   string         `json:"description,omitempty"`
	Image         string         `json:"image,omitempty"`
	Featured      bool           `json:"featured"`
	Features      []FeatureGroup `json:"features,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// Title renders "<year> <make> <model> <trim>" skipping empty parts.
func (v Vehicle) Title() string {
	parts := make([]string, 0, 4)
	if v.Year > 0 {
		parts = append(parts, strconv.Itoa(v.Year))
	}
	for _, p := range []string{v.Make, v.Model, v.Trim} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// VehicleInput is the create payload. Numeric fields accept JSON numbers or
// the free-text strings the inventory form posts.
type VehicleInput struct {
	Make          string         `json:"make"`
	Model         string         `json:"model"`
	Trim          string         `json:"trim"`
	Year          FlexNumber     `json:"year" swaggertype:"string" example:"2019"`
	Price         FlexNumber     `json:"price" swaggertype:"string" example:"$18,500"`
	Mileage       FlexNumber     `json:"mileage" swaggertype:"string" example:"42,000"`
	FuelType      string         `json:"fuelType"`
	Transmission  string         `json:"transmission"`
	ExteriorColor string         `json:"exteriorColor"`
	InteriorColor string         `json:"interiorColor"`
	VIN           string         `json:"vin"`
	StockNumber   string         `json:"stockNumber"`
	Engine        string         `json:"engine"`
	Drivetrain    string         `json:"drivetrain"`
	BodyType      string         `json:"bodyType"`
	Condition     string         `json:"condition"`
	Description   string         `json:"description"`
	Image         string         `json:"image"`
	Featured      bool           `json:"featured"`
	Features      []FeatureGroup `json:"features"`
}

// VehiclePatch enumerates every field a partial update may touch. Nil means
// "leave as is". There is deliberately no ID field: the path id always wins
// and unknown keys are dropped by the decoder.
type VehiclePatch struct {
	Make          *string         `json:"make,omitempty"`
	Model         *string         `json:"model,omitempty"`
	Trim          *string         `json:"trim,omitempty"`
	Year          *FlexNumber     `json:"year,omitempty" swaggertype:"string" example:"2019"`
	Price         *FlexNumber     `json:"price,omitempty" swaggertype:"string" example:"$18,500"`
	Mileage       *FlexNumber     `json:"mileage,omitempty" swaggertype:"string" example:"42,000"`
	FuelType      *string         `json:"fuelType,omitempty"`
	Transmission  *string         `json:"transmission,omitempty"`
	ExteriorColor *string         `json:"exteriorColor,omitempty"`
	InteriorColor *string         `json:"interiorColor,omitempty"`
	VIN           *string         `json:"vin,omitempty"`
	StockNumber   *string         `json:"stockNumber,omitempty"`
	Engine        *string         `json:"engine,omitempty"`
	Drivetrain    *string         `json:"drivetrain,omitempty"`
	BodyType      *string         `json:"bodyType,omitempty"`
	Condition     *string         `json:"condition,omitempty"`
	Description   *string         `json:"description,omitempty"`
	Image         *string         `json:"image,omitempty"`
	Featured      *bool           `json:"featured,omitempty"`
	Features      *[]FeatureGroup `json:"features,omitempty"`
}

// ErrNotNumeric is returned by FlexNumber.Float when the raw text is not a
// finite number.
var ErrNotNumeric = errors.New("not a number")

// FlexNumber keeps the raw text of a numeric form field so coercion can be
// validated by the caller rather than failing the whole JSON decode.
type FlexNumber struct {
	Raw string
	Set bool
}

// NewFlexNumber builds a set FlexNumber from text.
func NewFlexNumber(raw string) FlexNumber { return FlexNumber{Raw: raw, Set: true} }

// UnmarshalJSON accepts a JSON number, a JSON string, or null.
func (n *FlexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = FlexNumber{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = FlexNumber{Raw: s, Set: true}
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*n = FlexNumber{Raw: num.String(), Set: true}
	return nil
}

// MarshalJSON writes the raw text as a string so the value round-trips.
func (n FlexNumber) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return json.Marshal(n.Raw)
}

// Empty reports whether no value (or only whitespace) was supplied.
func (n FlexNumber) Empty() bool {
	return !n.Set || strings.TrimSpace(n.Raw) == ""
}

// Float parses the raw text, tolerating thousands separators, a leading
// dollar sign, and surrounding spaces. NaN and Inf are rejected.
func (n FlexNumber) Float() (float64, error) {
	s := strings.TrimSpace(n.Raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrNotNumeric
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrNotNumeric
	}
	return f, nil
}
