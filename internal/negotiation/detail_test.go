package negotiation

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/apitest"
	rerrors "github.com/healthrepublic/republic/internal/errors"
	"github.com/healthrepublic/republic/internal/log"
	"github.com/healthrepublic/republic/internal/poll"
)

const wait = 2 * time.Second

type staticToken string

func (s staticToken) AccessToken() string { return string(s) }

var offerPath = "/negotiations/1/supplier-offer"

func setup(t *testing.T, userID int64, opts ...Option) (*apitest.Server, *Detail) {
	t.Helper()
	srv := apitest.NewServer(t)
	client := api.New(srv.URL, api.WithLogger(log.Discard()))
	access, _ := srv.IssueTokens(userID, time.Hour)
	opts = append([]Option{WithLogger(log.Discard())}, opts...)
	return srv, NewDetail(client, staticToken(access), apitest.NegotiationID, opts...)
}

func receive(t *testing.T, ch <-chan View) View {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "view channel closed")
		return v
	case <-time.After(wait):
		t.Fatal("timed out waiting for view")
	}
	return View{}
}

func TestParseOffer(t *testing.T) {
	tests := []struct {
		name    string
		form    OfferForm
		wantErr string
		check   func(t *testing.T, in api.OfferInput)
	}{
		{name: "blank pmpm", form: OfferForm{PMPM: "  "}, wantErr: "proposed_pmpm"},
		{name: "non-numeric pmpm", form: OfferForm{PMPM: "cheap"}, wantErr: "proposed_pmpm"},
		{name: "nan pmpm", form: OfferForm{PMPM: "NaN"}, wantErr: "proposed_pmpm"},
		{name: "non-numeric mlr", form: OfferForm{PMPM: "400", MLR: "high"}, wantErr: "proposed_mlr"},
		{
			name: "pmpm only",
			form: OfferForm{PMPM: " 412.5 ", MLR: " ", Notes: "   "},
			check: func(t *testing.T, in api.OfferInput) {
				assert.Equal(t, 412.5, in.ProposedPMPM)
				assert.Nil(t, in.ProposedMLR)
				assert.Nil(t, in.Notes)
				assert.False(t, in.Accept)
			},
		},
		{
			name: "all fields",
			form: OfferForm{PMPM: "400", MLR: "0.82", Notes: "  final offer \n"},
			check: func(t *testing.T, in api.OfferInput) {
				require.NotNil(t, in.ProposedMLR)
				assert.Equal(t, 0.82, *in.ProposedMLR)
				require.NotNil(t, in.Notes)
				assert.Equal(t, "final offer", *in.Notes)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := ParseOffer(tt.form)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, rerrors.ErrCodeInvalidInput, rerrors.CodeOf(err))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, in)
		})
	}
}

func TestInvalidOfferMakesNoRequest(t *testing.T) {
	srv, d := setup(t, apitest.SupplierID)

	_, err := d.SubmitOffer(context.Background(), OfferForm{PMPM: "four hundred"})
	require.Error(t, err)
	assert.Equal(t, rerrors.ErrCodeInvalidInput, rerrors.CodeOf(err))
	assert.Zero(t, srv.Hits(http.MethodPost, offerPath))
	assert.Zero(t, srv.Hits(http.MethodGet, "/negotiations/1"))

	v := d.Snapshot()
	assert.Equal(t, err, v.SubmitErr)
	assert.Equal(t, "four hundred", v.Form.PMPM, "form keeps the rejected input")
}

func TestSubmitOfferAddsOneRound(t *testing.T) {
	srv, d := setup(t, apitest.SupplierID)
	ctx := context.Background()

	require.NoError(t, d.Reload(ctx))
	before := len(d.Rounds())
	require.Equal(t, apitest.NegotiationID, d.ID())

	resp, err := d.SubmitOffer(ctx, OfferForm{PMPM: "420", MLR: "0.85", Notes: " revised "})
	require.NoError(t, err)
	assert.Equal(t, apitest.NegotiationID, resp.NegotiationID)
	assert.Equal(t, api.ActorSupplier, resp.Round.Actor)

	v := d.Snapshot()
	assert.Len(t, v.Rounds(), before+1)
	assert.Equal(t, before+1, srv.Rounds(apitest.NegotiationID))
	last := v.Rounds()[len(v.Rounds())-1]
	require.NotNil(t, last.ProposedPMPM)
	assert.Equal(t, 420.0, *last.ProposedPMPM)

	require.NotNil(t, v.Evaluation)
	assert.False(t, v.Evaluation.IsAcceptable, "420 is above the 400 target")
	assert.Equal(t, OfferForm{}, v.Form)
	assert.False(t, v.Submitting)
	assert.NoError(t, v.SubmitErr)
}

func TestSubmitOfferServerRejection(t *testing.T) {
	srv, d := setup(t, apitest.SupplierID)
	srv.Fail(http.MethodPost, offerPath, http.StatusBadRequest, `{"detail":"Negotiation is not open (status=agreed)"}`, 1)

	form := OfferForm{PMPM: "390"}
	_, err := d.SubmitOffer(context.Background(), form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Negotiation is not open")

	v := d.Snapshot()
	assert.Equal(t, form, v.Form)
	assert.False(t, v.Submitting)
	assert.Error(t, v.SubmitErr)
	assert.Nil(t, v.Evaluation)
}

func TestCounterAndAccept(t *testing.T) {
	srv, d := setup(t, apitest.MemberID)
	ctx := context.Background()

	resp, err := d.SubmitCounter(ctx, OfferForm{PMPM: "380"})
	require.NoError(t, err)
	assert.Equal(t, api.ActorCollective, resp.Round.Actor)
	assert.Equal(t, 2, srv.Rounds(apitest.NegotiationID))

	n, err := d.Accept(ctx)
	require.NoError(t, err)
	assert.Equal(t, api.StatusAgreed, n.Status)
	require.NotNil(t, n.FinalAgreedPMPM)
	assert.Equal(t, 380.0, *n.FinalAgreedPMPM)

	v := d.Snapshot()
	assert.Equal(t, api.StatusAgreed, v.Negotiation.Status)
	assert.False(t, v.Submitting)
}

func TestAcceptForbiddenForSupplier(t *testing.T) {
	_, d := setup(t, apitest.SupplierID)

	_, err := d.Accept(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.Error(t, d.Snapshot().SubmitErr)
}

func TestWatchPollsUntilClosed(t *testing.T) {
	ticker := poll.NewManualTicker()
	srv, d := setup(t, apitest.SupplierID, WithTicker(ticker.Factory()), WithInterval(5*time.Second))

	views := d.Watch(context.Background())
	assert.Equal(t, views, d.Watch(context.Background()), "Watch is idempotent")

	v := receive(t, views)
	assert.False(t, v.Loading)
	require.NotNil(t, v.Negotiation)
	assert.Len(t, v.Rounds(), 1)
	assert.Equal(t, 5*time.Second, ticker.Interval())

	srv.AddRound(apitest.NegotiationID, api.ActorCollective, 410)
	require.True(t, ticker.Tick(wait))
	v = receive(t, views)
	assert.True(t, v.Changed)
	assert.Len(t, v.Rounds(), 2)

	require.True(t, ticker.Tick(wait))
	v = receive(t, views)
	assert.False(t, v.Changed)

	d.Close()
	hits := srv.Hits(http.MethodGet, "/negotiations/1")

	assert.False(t, ticker.Tick(50*time.Millisecond))
	d.Refresh()
	require.NoError(t, d.Reload(context.Background()))
	assert.Equal(t, hits, srv.Hits(http.MethodGet, "/negotiations/1"))

	for range views {
	}
}

func TestWatchReportsLoadErrors(t *testing.T) {
	ticker := poll.NewManualTicker()
	srv, d := setup(t, apitest.SupplierID, WithTicker(ticker.Factory()))
	defer d.Close()

	views := d.Watch(context.Background())
	first := receive(t, views)
	require.NotNil(t, first.Negotiation)

	srv.Fail(http.MethodGet, "/negotiations/1", http.StatusInternalServerError, "", 1)
	require.True(t, ticker.Tick(wait))
	v := receive(t, views)
	require.Error(t, v.Err)
	assert.Equal(t, "Failed to load negotiation", v.Err.Error())
	assert.NotNil(t, v.Negotiation, "the previous negotiation stays visible")
}

func TestWatchAfterClose(t *testing.T) {
	srv, d := setup(t, apitest.SupplierID)
	d.Close()

	_, open := <-d.Watch(context.Background())
	assert.False(t, open)
	assert.Zero(t, srv.Hits(http.MethodGet, "/negotiations/1"))
}

func TestSortedRounds(t *testing.T) {
	rounds := []api.Round{{ID: 3, RoundNumber: 3}, {ID: 1, RoundNumber: 1}, {ID: 2, RoundNumber: 2}}
	v := View{Negotiation: &api.Negotiation{Rounds: rounds}}

	sorted := v.Rounds()
	assert.Equal(t, []int64{1, 2, 3}, []int64{sorted[0].ID, sorted[1].ID, sorted[2].ID})
	assert.Equal(t, int64(3), rounds[0].ID, "stored order is untouched")
	assert.Nil(t, View{}.Rounds())
}

func TestOfferFormBlank(t *testing.T) {
	assert.True(t, OfferForm{PMPM: " "}.Blank())
	assert.False(t, OfferForm{Notes: "x"}.Blank())
}
