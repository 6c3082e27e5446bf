package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/locusaudit/merchant-validation/internal/config"
	"github.com/locusaudit/merchant-validation/internal/taxid"
)

// Client fetches company-registration records from a ReceitaWS-style API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a registry client.
func NewClient(cfg config.RegistryConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// registryResponse mirrors the provider's payload.
type registryResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`

	CNPJ            string `json:"cnpj"`
	Nome            string `json:"nome"`
	Fantasia        string `json:"fantasia"`
	NaturezaJuridica string `json:"natureza_juridica"`
	AtividadePrincipal []struct {
		Text string `json:"text"`
	} `json:"atividade_principal"`
	AtividadesSecundarias []struct {
		Text string `json:"text"`
	} `json:"atividades_secundarias"`
	Situacao           string `json:"situacao"`
	Abertura           string `json:"abertura"`
	Logradouro         string `json:"logradouro"`
	Numero             string `json:"numero"`
	Complemento        string `json:"complemento"`
	Bairro             string `json:"bairro"`
	Municipio          string `json:"municipio"`
	UF                 string `json:"uf"`
	CEP                string `json:"cep"`
	Telefone           string `json:"telefone"`
	Email              string `json:"email"`
	CapitalSocial      string `json:"capital_social"`
	Porte              string `json:"porte"`
	UltimaAtualizacao  string `json:"ultima_atualizacao"`
	QSA                []struct {
		Nome string `json:"nome"`
		Qual string `json:"qual"`
	} `json:"qsa"`
}

// Fetch retrieves the registration record for a tax identifier. Malformed
// identifiers, unknown identifiers, provider-side errors and rate limiting
// all yield a nil record; only transport faults surface as errors.
func (c *Client) Fetch(ctx context.Context, id string) (*Record, error) {
	cleaned := taxid.Clean(id)
	if !taxid.IsValidFormat(cleaned) {
		c.logger.Warn("Invalid tax identifier format", "tax_id", id)
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s", c.baseURL, cleaned), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn("Registry API rate limit exceeded", "tax_id", cleaned)
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		c.logger.Warn("Registry API returned unexpected status",
			"tax_id", cleaned,
			"status_code", resp.StatusCode)
		return nil, nil
	}

	var payload registryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode registry response: %w", err)
	}

	if payload.Status == "ERROR" {
		c.logger.Warn("Registry API error",
			"tax_id", cleaned,
			"message", payload.Message)
		return nil, nil
	}

	return c.toRecord(payload), nil
}

func (c *Client) toRecord(payload registryResponse) *Record {
	record := &Record{
		TaxID:              payload.CNPJ,
		CompanyName:        payload.Nome,
		TradeName:          payload.Fantasia,
		LegalNature:        payload.NaturezaJuridica,
		RegistrationStatus: payload.Situacao,
		RegistrationDate:   payload.Abertura,
		Phone:              payload.Telefone,
		Email:              payload.Email,
		ShareCapital:       payload.CapitalSocial,
		CompanySize:        payload.Porte,
		LastUpdate:         payload.UltimaAtualizacao,
		Address: Address{
			Street:       payload.Logradouro,
			Number:       payload.Numero,
			Complement:   payload.Complemento,
			Neighborhood: payload.Bairro,
			City:         payload.Municipio,
			State:        payload.UF,
			ZipCode:      payload.CEP,
		},
	}
	record.Address.FullAddress = buildFullAddress(record.Address)

	if len(payload.AtividadePrincipal) > 0 {
		record.MainActivity = payload.AtividadePrincipal[0].Text
	}
	for _, activity := range payload.AtividadesSecundarias {
		record.SecondaryActivities = append(record.SecondaryActivities, activity.Text)
	}
	for _, partner := range payload.QSA {
		record.Partners = append(record.Partners, Partner{
			Name: partner.Nome,
			Role: partner.Qual,
		})
	}

	return record
}
