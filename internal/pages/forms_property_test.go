package pages

import (
	"fmt"
	"strconv"
	"testing"

	"pgregory.net/rapid"

	rerrors "github.com/healthrepublic/republic/internal/errors"
)

func TestParseIDAcceptsPositiveIDs(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		id := rapid.Int64Range(1, 1<<62).Draw(t, "id")
		pad := rapid.StringMatching(`[ \t]{0,3}`).Draw(t, "pad")

		got, err := ParseID("negotiation", pad+strconv.FormatInt(id, 10)+pad)
		if err != nil {
			t.Fatalf("ParseID(%d): %v", id, err)
		}
		if got != id {
			t.Fatalf("ParseID(%d) = %d", id, got)
		}
	})
}

func TestParseIDRejectsEverythingElse(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.OneOf(
			rapid.Just(""),
			rapid.Custom(func(t *rapid.T) string {
				return strconv.FormatInt(rapid.Int64Range(-1<<40, 0).Draw(t, "n"), 10)
			}),
			rapid.Custom(func(t *rapid.T) string {
				return fmt.Sprintf("%.2f", rapid.Float64Range(0.01, 1e6).Draw(t, "f"))
			}),
			rapid.StringMatching(`[a-z#/]{1,8}[0-9]{0,3}`),
		).Draw(t, "input")

		_, err := ParseID("negotiation", s)
		if err == nil {
			t.Fatalf("ParseID(%q) should fail", s)
		}
		if rerrors.CodeOf(err) != rerrors.ErrCodeInvalidInput {
			t.Fatalf("ParseID(%q) code = %s", s, rerrors.CodeOf(err))
		}
	})
}
