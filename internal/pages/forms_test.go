package pages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/healthrepublic/republic/internal/errors"
)

func requireInvalid(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, rerrors.ErrCodeInvalidInput, rerrors.CodeOf(err))
	assert.Contains(t, err.Error(), field)
}

func TestLoginFormValidate(t *testing.T) {
	requireInvalid(t, LoginForm{Password: "x"}.Validate(), "email")
	requireInvalid(t, LoginForm{Email: "a@b.c"}.Validate(), "password")
	assert.NoError(t, LoginForm{Email: "a@b.c", Password: "x"}.Validate())
}

func TestRegisterFormParse(t *testing.T) {
	valid := RegisterForm{
		Category: CategoryMember,
		Email:    " new@republic.test ",
		Password: "long-enough",
		Confirm:  "long-enough",
	}

	tests := []struct {
		name    string
		mutate  func(*RegisterForm)
		invalid string
		check   func(t *testing.T, f RegisterForm)
	}{
		{name: "unknown category", mutate: func(f *RegisterForm) { f.Category = "broker" }, invalid: "category"},
		{name: "missing email", mutate: func(f *RegisterForm) { f.Email = " " }, invalid: "email"},
		{name: "missing password", mutate: func(f *RegisterForm) { f.Password, f.Confirm = "", "" }, invalid: "password"},
		{name: "mismatch", mutate: func(f *RegisterForm) { f.Confirm = "different" }, invalid: "do not match"},
		{name: "household text", mutate: func(f *RegisterForm) { f.HouseholdSize = "four" }, invalid: "household_size"},
		{name: "household zero", mutate: func(f *RegisterForm) { f.HouseholdSize = "0" }, invalid: "household_size"},
		{
			name: "member",
			mutate: func(f *RegisterForm) {
				f.HouseholdSize = "3"
				f.AgeRange = "25-34"
			},
			check: func(t *testing.T, f RegisterForm) {
				req, err := f.Parse()
				require.NoError(t, err)
				assert.False(t, f.Supplier())
				assert.Equal(t, "new@republic.test", req.Email)
				require.NotNil(t, req.HouseholdSize)
				assert.Equal(t, 3, *req.HouseholdSize)
				assert.Equal(t, "consumer", *req.UserType)
				assert.Equal(t, "25-34", *req.AgeRange)
				assert.Nil(t, req.FullName)
			},
		},
		{
			name:   "employer",
			mutate: func(f *RegisterForm) { f.Category = CategoryEmployer },
			check: func(t *testing.T, f RegisterForm) {
				req, err := f.Parse()
				require.NoError(t, err)
				assert.Equal(t, "employer", *req.UserType)
			},
		},
		{
			name: "insurer ignores member-only fields",
			mutate: func(f *RegisterForm) {
				f.Category = CategoryInsurer
				f.HouseholdSize = "not checked"
				f.Industry = "healthcare"
			},
			check: func(t *testing.T, f RegisterForm) {
				req, err := f.Parse()
				require.NoError(t, err)
				assert.True(t, f.Supplier())
				assert.Nil(t, req.HouseholdSize)
				assert.Equal(t, "insurer", *req.UserType)
				assert.Equal(t, "healthcare", *req.Industry)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			if tt.invalid != "" {
				_, err := f.Parse()
				requireInvalid(t, err, tt.invalid)
				return
			}
			tt.check(t, f)
		})
	}
}

func TestCreateNegotiationFormParse(t *testing.T) {
	tests := []struct {
		name    string
		form    CreateNegotiationForm
		invalid string
	}{
		{"missing collective", CreateNegotiationForm{SupplierID: "3"}, "collective_id"},
		{"zero collective", CreateNegotiationForm{CollectiveID: "0", SupplierID: "3"}, "collective_id"},
		{"missing supplier", CreateNegotiationForm{CollectiveID: "1"}, "supplier_id"},
		{"text supplier", CreateNegotiationForm{CollectiveID: "1", SupplierID: "acme"}, "supplier_id"},
		{"bad pmpm", CreateNegotiationForm{CollectiveID: "1", SupplierID: "3", TargetPMPM: "lots"}, "target_pmpm"},
		{"fractional population", CreateNegotiationForm{CollectiveID: "1", SupplierID: "3", PopulationSize: "10.5"}, "target_population_size"},
		{"bad risk", CreateNegotiationForm{CollectiveID: "1", SupplierID: "3", RiskAppetite: "extreme"}, "risk_appetite"},
		{"bad date", CreateNegotiationForm{CollectiveID: "1", SupplierID: "3", StartDate: "31/01/2026"}, "target_start_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.form.Parse()
			requireInvalid(t, err, tt.invalid)
		})
	}

	t.Run("minimal", func(t *testing.T) {
		req, err := CreateNegotiationForm{CollectiveID: " 1 ", SupplierID: "3"}.Parse()
		require.NoError(t, err)
		assert.Equal(t, int64(1), req.CollectiveID)
		assert.Equal(t, int64(3), req.SupplierID)
		assert.Nil(t, req.TargetPMPM)
		assert.Nil(t, req.RiskAppetite)
		assert.Nil(t, req.TargetStartDate)
	})

	t.Run("full", func(t *testing.T) {
		req, err := CreateNegotiationForm{
			CollectiveID:   "1",
			SupplierID:     "3",
			TargetPMPM:     "395.5",
			PopulationSize: "1200",
			RiskAppetite:   "High",
			StartDate:      "2026-01-31",
			Notes:          " renewal ",
		}.Parse()
		require.NoError(t, err)
		assert.Equal(t, 395.5, *req.TargetPMPM)
		assert.Equal(t, 1200, *req.TargetPopulationSize)
		assert.Equal(t, "high", *req.RiskAppetite)
		assert.Equal(t, "2026-01-31", *req.TargetStartDate)
		assert.Equal(t, "renewal", *req.Notes)
	})
}

func TestCreateUserFormParse(t *testing.T) {
	_, err := CreateUserForm{Password: "pw", Role: "member"}.Parse()
	requireInvalid(t, err, "email")
	_, err = CreateUserForm{Email: "a@b.c", Role: "member"}.Parse()
	requireInvalid(t, err, "password")
	_, err = CreateUserForm{Email: "a@b.c", Password: "pw"}.Parse()
	requireInvalid(t, err, "role")

	req, err := CreateUserForm{Email: "a@b.c", Password: "pw", Role: " supplier "}.Parse()
	require.NoError(t, err)
	assert.Equal(t, "supplier", req.Role)
	assert.Nil(t, req.FullName)
}

func TestCollectiveForm(t *testing.T) {
	_, err := CollectiveForm{Category: "x"}.ParseCreate()
	requireInvalid(t, err, "name")

	in, err := CollectiveForm{Name: " Makers "}.ParseCreate()
	require.NoError(t, err)
	assert.Equal(t, "Makers", *in.Name)
	assert.Nil(t, in.Category)

	_, err = CollectiveForm{}.ParseUpdate()
	requireInvalid(t, err, "nothing to update")

	in, err = CollectiveForm{Category: "arts"}.ParseUpdate()
	require.NoError(t, err)
	assert.Nil(t, in.Name)
	assert.Equal(t, "arts", *in.Category)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("id", "17")
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)

	_, err = ParseID("id", "-2")
	requireInvalid(t, err, "id")
}
