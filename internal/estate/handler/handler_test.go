package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"heirloom/internal/estate/models"
	"heirloom/internal/estate/service"
	assetstore "heirloom/internal/estate/store/asset"
	beneficiarystore "heirloom/internal/estate/store/beneficiary"
	"heirloom/pkg/testutil"
)

func newEstateRouter() chi.Router {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(assetstore.NewInMemory(), beneficiarystore.NewInMemory(), service.WithLogger(log))
	r := chi.NewRouter()
	New(svc, log).Register(r)
	return r
}

func TestCreateAndListAssets(t *testing.T) {
	router := newEstateRouter()
	userID := uuid.NewString()

	req := testutil.NewJSONRequest(t, http.MethodPost, "/assets", map[string]any{
		"type": "property", "name": "Lake house", "value": 400000,
	})
	rr := testutil.DoRequest(router, testutil.WithUserID(req, userID))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	created := testutil.UnmarshalResponse[models.Asset](t, rr)
	if created.ID == uuid.Nil {
		t.Fatal("expected asset id in response")
	}
	if created.Currency != "USD" {
		t.Fatalf("expected defaulted currency USD, got %q", created.Currency)
	}

	listReq := testutil.NewRequest(t, http.MethodGet, "/assets")
	listRR := testutil.DoRequest(router, testutil.WithUserID(listReq, userID))
	testutil.AssertStatusOK(t, listRR)

	list := testutil.UnmarshalResponse[struct {
		Assets []models.Asset `json:"assets"`
	}](t, listRR)
	if len(list.Assets) != 1 || list.Assets[0].ID != created.ID {
		t.Fatalf("expected the created asset in the list, got %+v", list.Assets)
	}
}

func TestCreateAssetValidationError(t *testing.T) {
	router := newEstateRouter()

	req := testutil.NewJSONRequest(t, http.MethodPost, "/assets", map[string]any{
		"type": "yacht-club", "name": "Lake house",
	})
	rr := testutil.DoRequest(router, testutil.WithUserID(req, uuid.NewString()))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	router := newEstateRouter()

	req := testutil.NewRequestWithBody(t, http.MethodPost, "/beneficiaries", "{not json")
	rr := testutil.DoRequest(router, testutil.WithUserID(req, uuid.NewString()))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
}

func TestInvalidPathID(t *testing.T) {
	router := newEstateRouter()

	req := testutil.NewRequest(t, http.MethodGet, "/assets/not-a-uuid")
	rr := testutil.DoRequest(router, testutil.WithUserID(req, uuid.NewString()))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
}

func TestGetMissingBeneficiary(t *testing.T) {
	router := newEstateRouter()

	req := testutil.NewRequest(t, http.MethodGet, "/beneficiaries/"+uuid.NewString())
	rr := testutil.DoRequest(router, testutil.WithUserID(req, uuid.NewString()))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestDeleteAssetReturnsNoContent(t *testing.T) {
	router := newEstateRouter()
	userID := uuid.NewString()

	req := testutil.NewJSONRequest(t, http.MethodPost, "/assets", map[string]any{
		"type": "personal", "name": "Piano", "value": 9000,
	})
	rr := testutil.DoRequest(router, testutil.WithUserID(req, userID))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	created := testutil.UnmarshalResponse[models.Asset](t, rr)

	delReq := testutil.NewRequest(t, http.MethodDelete, "/assets/"+created.ID.String())
	delRR := testutil.DoRequest(router, testutil.WithUserID(delReq, userID))
	testutil.AssertStatus(t, delRR, http.StatusNoContent)
}
