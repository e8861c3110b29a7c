package stripe_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/marcdasilva/passtheplate/internal/adapters/stripe"
	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
)

const webhookSecret = "whsec_test"

func fakeBackends(url string) *stripego.Backends {
	backend := stripego.GetBackendWithConfig(stripego.APIBackend, &stripego.BackendConfig{
		URL:               stripego.String(url),
		MaxNetworkRetries: stripego.Int64(0),
		LeveledLogger:     &stripego.LeveledLogger{Level: stripego.LevelNull},
	})
	return &stripego.Backends{API: backend, Connect: backend, Uploads: backend}
}

func TestCreateCheckout(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://pay.example/cs_test_1"}`))
	}))
	defer srv.Close()

	p := stripe.New("sk_test_1", webhookSecret, fakeBackends(srv.URL))
	sess, err := p.CreateCheckout(context.Background(), ports.CheckoutRequest{
		AmountCents: 550,
		UserID:      "u1",
		From:        domain.GeoPoint{Lat: 39.95, Lon: -75.16},
		To:          domain.GeoPoint{Lat: 40.71, Lon: -74.0},
		Description: "Supporting community donations",
		SuccessURL:  "https://app.example/donation/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   "https://app.example/donation/cancel",
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", sess.ID)
	assert.Equal(t, "https://pay.example/cs_test_1", sess.URL)
	assert.Equal(t, "550", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "usd", form.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "payment", form.Get("mode"))
	assert.Equal(t, "u1", form.Get("metadata[userId]"))
	assert.Equal(t, "5.5", form.Get("metadata[amount]"))
	assert.Equal(t, "-74", form.Get("metadata[toLongitude]"))
}

func TestCreateCheckout_NoSecretKey(t *testing.T) {
	_, err := stripe.New("", webhookSecret, nil).CreateCheckout(context.Background(), ports.CheckoutRequest{AmountCents: 100})

	var upstream *domain.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusInternalServerError, upstream.Status)
}

func signed(t *testing.T, payload string) (string, []byte) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(payload),
		Secret:  webhookSecret,
	})
	return sp.Header, sp.Payload
}

func TestParseWebhook_CompletedCheckout(t *testing.T) {
	header, body := signed(t, `{
		"id": "evt_1", "object": "event", "type": "checkout.session.completed",
		"data": {"object": {"id": "cs_1", "object": "checkout.session", "metadata": {
			"userId": "u1", "fromLatitude": "39.95", "fromLongitude": "-75.16",
			"toLatitude": "40.71", "toLongitude": "-74", "amount": "5"
		}}}
	}`)

	done, err := stripe.New("sk", webhookSecret, nil).ParseWebhook(body, header)

	require.NoError(t, err)
	require.NotNil(t, done)
	assert.Equal(t, "cs_1", done.SessionID)
	assert.Equal(t, "u1", done.UserID)
	assert.Equal(t, domain.GeoPoint{Lat: 39.95, Lon: -75.16}, done.From)
	assert.Equal(t, domain.GeoPoint{Lat: 40.71, Lon: -74}, done.To)
	assert.Equal(t, 5.0, done.Amount)
}

func TestParseWebhook_OtherEventIgnored(t *testing.T) {
	header, body := signed(t, `{"id":"evt_2","object":"event","type":"payment_intent.created","data":{"object":{"id":"pi_1"}}}`)

	done, err := stripe.New("sk", webhookSecret, nil).ParseWebhook(body, header)
	require.NoError(t, err)
	assert.Nil(t, done)
}

func TestParseWebhook_BadSignature(t *testing.T) {
	_, body := signed(t, `{"id":"evt_3","object":"event","type":"checkout.session.completed","data":{"object":{}}}`)

	_, err := stripe.New("sk", webhookSecret, nil).ParseWebhook(body, "t=1,v1=deadbeef")
	assert.Error(t, err)
}
