package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locusaudit/merchant-validation/internal/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.RegistryConfig{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const registrationPayload = `{
	"status": "OK",
	"cnpj": "12.345.678/0001-95",
	"nome": "ACME COMERCIO LTDA",
	"fantasia": "ACME",
	"situacao": "ATIVA",
	"abertura": "10/03/2015",
	"logradouro": "RUA DAS FLORES",
	"numero": "100",
	"bairro": "CENTRO",
	"municipio": "SAO PAULO",
	"uf": "SP",
	"cep": "01000-000",
	"telefone": "(11) 5555-0100",
	"email": "contato@acme.example",
	"porte": "DEMAIS",
	"atividade_principal": [{"text": "Comercio varejista"}],
	"qsa": [{"nome": "MARIA SILVA", "qual": "Socio-Administrador"}]
}`

func TestClientFetch(t *testing.T) {
	t.Run("maps a successful payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/12345678000195", r.URL.Path, "identifier must be cleaned before the request")
			fmt.Fprint(w, registrationPayload)
		}))
		defer server.Close()

		record, err := newTestClient(server.URL).Fetch(context.Background(), "12.345.678/0001-95")
		require.NoError(t, err)
		require.NotNil(t, record)

		assert.Equal(t, "ACME COMERCIO LTDA", record.CompanyName)
		assert.Equal(t, "ACME", record.TradeName)
		assert.Equal(t, "ATIVA", record.RegistrationStatus)
		assert.Equal(t, "Comercio varejista", record.MainActivity)
		assert.Equal(t, "RUA DAS FLORES, 100 - CENTRO - SAO PAULO, SP - CEP: 01000-000", record.Address.FullAddress)
		require.Len(t, record.Partners, 1)
		assert.Equal(t, "MARIA SILVA", record.Partners[0].Name)
	})

	t.Run("invalid identifier yields absence without a request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected for a malformed identifier")
		}))
		defer server.Close()

		record, err := newTestClient(server.URL).Fetch(context.Background(), "123")
		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("rate limiting yields absence", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		record, err := newTestClient(server.URL).Fetch(context.Background(), "12345678000195")
		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("provider error payload yields absence", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status": "ERROR", "message": "CNPJ invalido"}`)
		}))
		defer server.Close()

		record, err := newTestClient(server.URL).Fetch(context.Background(), "12345678000195")
		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("unexpected status yields absence", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		record, err := newTestClient(server.URL).Fetch(context.Background(), "12345678000195")
		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("transport fault surfaces as error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		record, err := newTestClient(server.URL).Fetch(context.Background(), "12345678000195")
		assert.Error(t, err)
		assert.Nil(t, record)
	})
}
