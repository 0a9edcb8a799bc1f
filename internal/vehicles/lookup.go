package vehicles

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Lookup resolves VINs to vehicle attributes and ZIP codes to states. The
// tables are embedded; the surface is shaped as if a decoding service sat
// behind it.
type Lookup struct {
	now func() time.Time
}

func NewLookup() *Lookup {
	return &Lookup{now: time.Now}
}

// NewLookupAt pins the decoder's clock, which fixes the model-year cycle.
func NewLookupAt(now func() time.Time) *Lookup {
	if now == nil {
		now = time.Now
	}
	return &Lookup{now: now}
}

var (
	ErrInvalidVIN  = errors.New("invalid vin")
	ErrUnknownMake = errors.New("unknown manufacturer")
	ErrInvalidZIP  = errors.New("invalid zip code")
	ErrUnknownZIP  = errors.New("zip code not covered")
)

// Vehicle is the decoded lookup result. Mileage is a request attribute, not a
// VIN attribute, so it is absent here.
type Vehicle struct {
	VIN   string `json:"vin"`
	Year  int    `json:"year"`
	Make  string `json:"make"`
	Model string `json:"model"`
	Trim  string `json:"trim"`
}

// DecodeVIN validates the VIN shape and derives year/make/model/trim from it.
func (l *Lookup) DecodeVIN(vin string) (Vehicle, error) {
	normalized := strings.ToUpper(strings.TrimSpace(vin))
	if err := validateVIN(normalized); err != nil {
		return Vehicle{}, err
	}

	year, err := l.modelYear(normalized[9])
	if err != nil {
		return Vehicle{}, err
	}

	make, models, err := makeForWMI(normalized)
	if err != nil {
		return Vehicle{}, err
	}

	return Vehicle{
		VIN:   normalized,
		Year:  year,
		Make:  make,
		Model: models[vdsChecksum(normalized)%len(models)],
		Trim:  trims[int(normalized[7])%len(trims)],
	}, nil
}

func validateVIN(vin string) error {
	if len(vin) != 17 {
		return fmt.Errorf("%w: must be 17 characters", ErrInvalidVIN)
	}
	for _, r := range vin {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'A' && r <= 'Z':
			if r == 'I' || r == 'O' || r == 'Q' {
				return fmt.Errorf("%w: character %q is not allowed", ErrInvalidVIN, r)
			}
		default:
			return fmt.Errorf("%w: character %q is not allowed", ErrInvalidVIN, r)
		}
	}
	return nil
}

// yearCodes maps position 10 to the base model year of the 1980-2009 cycle;
// the code repeats every 30 years.
var yearCodes = map[byte]int{
	'A': 1980, 'B': 1981, 'C': 1982, 'D': 1983, 'E': 1984, 'F': 1985,
	'G': 1986, 'H': 1987, 'J': 1988, 'K': 1989, 'L': 1990, 'M': 1991,
	'N': 1992, 'P': 1993, 'R': 1994, 'S': 1995, 'T': 1996, 'V': 1997,
	'W': 1998, 'X': 1999, 'Y': 2000,
	'1': 2001, '2': 2002, '3': 2003, '4': 2004, '5': 2005,
	'6': 2006, '7': 2007, '8': 2008, '9': 2009,
}

func (l *Lookup) modelYear(code byte) (int, error) {
	base, ok := yearCodes[code]
	if !ok {
		return 0, fmt.Errorf("%w: unknown year code %q", ErrInvalidVIN, code)
	}
	// Pick the latest cycle that does not run past next model year.
	year := base
	limit := l.now().Year() + 1
	for year+30 <= limit {
		year += 30
	}
	return year, nil
}

var wmiMakes = map[string]string{
	"1HG": "Honda", "JHM": "Honda",
	"1FA": "Ford", "1FT": "Ford",
	"1G1": "Chevrolet", "1GC": "Chevrolet",
	"2T1": "Toyota", "4T1": "Toyota", "JTD": "Toyota",
	"3VW": "Volkswagen", "WVW": "Volkswagen",
	"5YJ": "Tesla",
	"KM8": "Hyundai", "5NP": "Hyundai",
	"KND": "Kia",
	"JN1": "Nissan", "1N4": "Nissan",
	"WBA": "BMW", "WBS": "BMW",
	"WDB": "Mercedes-Benz", "WDD": "Mercedes-Benz",
	"1C4": "Jeep",
}

var modelsByMake = map[string][]string{
	"Honda":         {"Accord", "Civic", "CR-V", "Pilot"},
	"Ford":          {"F-150", "Escape", "Explorer", "Mustang"},
	"Chevrolet":     {"Silverado", "Equinox", "Malibu", "Tahoe"},
	"Toyota":        {"Camry", "Corolla", "RAV4", "Highlander"},
	"Volkswagen":    {"Jetta", "Passat", "Tiguan", "Atlas"},
	"Tesla":         {"Model 3", "Model Y", "Model S", "Model X"},
	"Hyundai":       {"Elantra", "Sonata", "Tucson", "Santa Fe"},
	"Kia":           {"Sorento", "Sportage", "Telluride", "Forte"},
	"Nissan":        {"Altima", "Rogue", "Sentra", "Pathfinder"},
	"BMW":           {"3 Series", "5 Series", "X3", "X5"},
	"Mercedes-Benz": {"C-Class", "E-Class", "GLC", "GLE"},
	"Jeep":          {"Grand Cherokee", "Wrangler", "Compass", "Gladiator"},
}

var trims = []string{"Base", "Sport", "Limited", "Touring"}

func makeForWMI(vin string) (string, []string, error) {
	name, ok := wmiMakes[vin[:3]]
	if !ok {
		return "", nil, fmt.Errorf("%w: wmi %q", ErrUnknownMake, vin[:3])
	}
	return name, modelsByMake[name], nil
}

// vdsChecksum folds the vehicle descriptor section into a stable small number.
func vdsChecksum(vin string) int {
	sum := 0
	for i := 3; i < 8; i++ {
		sum += int(vin[i])
	}
	return sum
}

// StateForZIP maps a 5-digit ZIP to its two-letter state code using the
// 3-digit prefix ranges.
func (l *Lookup) StateForZIP(zip string) (string, error) {
	trimmed := strings.TrimSpace(zip)
	if len(trimmed) != 5 {
		return "", fmt.Errorf("%w: must be 5 digits", ErrInvalidZIP)
	}
	prefix, err := strconv.Atoi(trimmed[:3])
	if err != nil {
		return "", fmt.Errorf("%w: must be numeric", ErrInvalidZIP)
	}
	if _, err := strconv.Atoi(trimmed); err != nil {
		return "", fmt.Errorf("%w: must be numeric", ErrInvalidZIP)
	}
	for _, r := range zipRanges {
		if prefix >= r.lo && prefix <= r.hi {
			return r.state, nil
		}
	}
	return "", fmt.Errorf("%w: prefix %03d", ErrUnknownZIP, prefix)
}

type zipRange struct {
	lo, hi int
	state  string
}

var zipRanges = []zipRange{
	{10, 27, "MA"},
	{28, 29, "RI"},
	{30, 38, "NH"},
	{39, 49, "ME"},
	{50, 59, "VT"},
	{60, 69, "CT"},
	{70, 89, "NJ"},
	{100, 149, "NY"},
	{150, 196, "PA"},
	{197, 199, "DE"},
	{200, 205, "DC"},
	{206, 219, "MD"},
	{220, 246, "VA"},
	{247, 268, "WV"},
	{270, 289, "NC"},
	{290, 299, "SC"},
	{300, 319, "GA"},
	{320, 349, "FL"},
	{350, 369, "AL"},
	{370, 385, "TN"},
	{386, 397, "MS"},
	{400, 427, "KY"},
	{430, 459, "OH"},
	{460, 479, "IN"},
	{480, 499, "MI"},
	{500, 528, "IA"},
	{530, 549, "WI"},
	{550, 567, "MN"},
	{570, 577, "SD"},
	{580, 588, "ND"},
	{590, 599, "MT"},
	{600, 629, "IL"},
	{630, 658, "MO"},
	{660, 679, "KS"},
	{680, 693, "NE"},
	{700, 714, "LA"},
	{716, 729, "AR"},
	{730, 749, "OK"},
	{750, 799, "TX"},
	{800, 816, "CO"},
	{820, 831, "WY"},
	{832, 838, "ID"},
	{840, 847, "UT"},
	{850, 865, "AZ"},
	{870, 884, "NM"},
	{889, 898, "NV"},
	{900, 961, "CA"},
	{967, 968, "HI"},
	{970, 979, "OR"},
	{980, 994, "WA"},
	{995, 999, "AK"},
}
