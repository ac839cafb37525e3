package httptransport

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stallworks/internal/coinhouse"
	"stallworks/internal/events"
	"stallworks/internal/notify"
	"stallworks/internal/persona"
	"stallworks/internal/platform/logger"
	"stallworks/internal/stall"
	"stallworks/internal/stall/commands"
	"stallworks/pkg/testutil"
)

type nopCustodian struct{}

func (nopCustodian) Impound(ctx context.Context, stallID uuid.UUID, areaResRef string, products []stall.Product) (int, error) {
	return 0, nil
}

func newTestRouter(t *testing.T) (http.Handler, *stall.MemoryStore) {
	t.Helper()
	log := logger.New()
	stalls := stall.NewMemoryStore()
	bank := coinhouse.NewService(coinhouse.NewMemoryStore(), coinhouse.NewMemoryTransactionLog())
	deps := &commands.Deps{
		Stalls:       stalls,
		Bank:         bank,
		Bus:          events.NewBus(log),
		Notifier:     notify.NewLogNotifier(log),
		Broadcaster:  notify.NopBroadcaster{},
		Custodian:    nopCustodian{},
		RentInterval: 24 * time.Hour,
		GracePeriod:  72 * time.Hour,
		Logger:       log,
	}
	handler := NewHandler(commands.NewDispatcher(deps), stalls, bank, log)
	return NewRouter(handler), stalls
}

func seedStall(t *testing.T, stalls *stall.MemoryStore) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, stalls.Create(context.Background(), stall.Stall{
		ID:            id,
		Tag:           "stall_api",
		AreaResRef:    "cordor_market",
		SettlementTag: "cordor",
		DailyRent:     250,
	}))
	return id
}

func TestCommandAPI(t *testing.T) {
	router, stalls := newTestRouter(t)
	id := seedStall(t, stalls)
	owner := persona.Character(uuid.New())

	t.Run("claim", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, fmt.Sprintf("/v1/stalls/%s/claim", id), map[string]any{
			"claimant":     owner.String(),
			"display_name": "Elira",
			"link_account": true,
		})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
		testutil.AssertJSONContains(t, rr, "ok", true)
	})

	t.Run("stall read renders personas in canonical form", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, fmt.Sprintf("/v1/stalls/%s/", id)))
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Contains(t, rr.Body.String(), `"Persona":"`+owner.String()+`"`)
	})

	t.Run("rejected command returns 422 with the reason", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, fmt.Sprintf("/v1/stalls/%s/escrow/withdraw", id), map[string]any{
			"persona": owner.String(),
			"amount":  100,
		})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)

		out := testutil.UnmarshalResponse[resultResponse](t, rr)
		assert.False(t, out.OK)
		assert.Equal(t, "not enough gold held in the stall", out.Reason)
	})

	t.Run("invalid persona is a 400", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, fmt.Sprintf("/v1/stalls/%s/claim", id), map[string]any{
			"claimant":     "not-a-persona",
			"display_name": "x",
		})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("unknown stall is a 404 on read", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/v1/stalls/"+uuid.NewString()+"/")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})

	t.Run("account deposit then balance", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/accounts/deposit", map[string]any{
			"persona":       owner.String(),
			"coinhouse_tag": "cordor",
			"amount":        900,
			"memo":          "quest reward",
		})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		got := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/v1/accounts/"+owner.String()+"/balance?coinhouse=cordor"))
		testutil.AssertStatus(t, got, http.StatusOK)

		out := testutil.UnmarshalResponse[struct {
			Balance int64 `json:"balance"`
		}](t, got)
		assert.Equal(t, int64(900), out.Balance)
	})

	t.Run("healthz", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatus(t, rr, http.StatusOK)
	})
}
