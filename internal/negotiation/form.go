package negotiation

import (
	"math"
	"strconv"
	"strings"

	"github.com/healthrepublic/republic/internal/api"
	rerrors "github.com/healthrepublic/republic/internal/errors"
)

// OfferForm is the raw text of an offer as typed by the user.
type OfferForm struct {
	PMPM  string
	MLR   string
	Notes string
}

// Blank reports whether every field is empty.
func (f OfferForm) Blank() bool {
	return strings.TrimSpace(f.PMPM) == "" && strings.TrimSpace(f.MLR) == "" && strings.TrimSpace(f.Notes) == ""
}

// ParseOffer validates f. PMPM is required, MLR is optional, and blank
// notes are dropped. Accept is always false.
func ParseOffer(f OfferForm) (api.OfferInput, error) {
	pmpm, ok := parseNumber(f.PMPM)
	if !ok {
		return api.OfferInput{}, rerrors.NewInvalidInputError("proposed_pmpm", "please enter a valid PMPM amount")
	}

	in := api.OfferInput{ProposedPMPM: pmpm}

	if strings.TrimSpace(f.MLR) != "" {
		mlr, ok := parseNumber(f.MLR)
		if !ok {
			return api.OfferInput{}, rerrors.NewInvalidInputError("proposed_mlr", "must be a number")
		}
		in.ProposedMLR = &mlr
	}

	if notes := strings.TrimSpace(f.Notes); notes != "" {
		in.Notes = &notes
	}

	return in, nil
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
