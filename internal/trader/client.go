// Package trader places CLOB market orders on Polymarket. One FOK buy
// per call - order lifecycle management is deliberately absent, the risk
// gate upstream guarantees at most one order per token per session.
package trader

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/minutebid/minutebid/internal/config"
)

// Client is the authenticated CLOB execution client.
type Client struct {
	baseURL    string
	privateKey *ecdsa.PrivateKey
	address    string
	apiKey     string
	apiSecret  string
	passphrase string
	dryRun     bool
	httpClient *http.Client
}

// OrderResult is the CLOB response for a placed order.
type OrderResult struct {
	OrderID string `json:"orderID"`
	Status  string `json:"status"`
	Error   string `json:"error"`
}

// NewClient builds an execution client from configuration. Credentials
// may be absent: HasCredentials reports whether live orders can be sent,
// and the caller downgrades to alert-only mode when they cannot.
func NewClient(cfg *config.Config) (*Client, error) {
	client := &Client{
		baseURL:    cfg.CLOBAPIURL,
		apiKey:     cfg.CLOBApiKey,
		apiSecret:  cfg.CLOBApiSecret,
		passphrase: cfg.CLOBPassphrase,
		dryRun:     cfg.DryRun,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
	}

	if cfg.WalletPrivateKey != "" {
		pk, err := crypto.HexToECDSA(cfg.WalletPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		client.privateKey = pk
		client.address = crypto.PubkeyToAddress(pk.PublicKey).Hex()
	}

	mode := "LIVE"
	if client.dryRun {
		mode = "DRY RUN"
	}
	log.Info().
		Str("mode", mode).
		Str("address", client.address).
		Msg("🚀 Execution client initialized")

	return client, nil
}

// HasCredentials reports whether all credentials needed for live order
// submission are present.
func (c *Client) HasCredentials() bool {
	return c.privateKey != nil && c.apiKey != "" && c.apiSecret != "" && c.passphrase != ""
}

// IsDryRun returns true if in dry run mode.
func (c *Client) IsDryRun() bool { return c.dryRun }

// PlaceMarketOrder submits a Fill-or-Kill market buy for stakeUSD worth
// of the given YES token. Returns the venue's order id.
func (c *Client) PlaceMarketOrder(tokenID string, stakeUSD decimal.Decimal) (OrderResult, error) {
	if c.dryRun {
		result := OrderResult{
			OrderID: fmt.Sprintf("DRY_%d", time.Now().UnixNano()),
			Status:  "matched",
		}
		log.Info().
			Str("order_id", result.OrderID).
			Str("token", shortToken(tokenID)).
			Str("stake", stakeUSD.StringFixed(2)).
			Msg("📝 DRY RUN: Order would be placed")
		return result, nil
	}

	if !c.HasCredentials() {
		return OrderResult{}, fmt.Errorf("CLOB credentials missing")
	}

	order := map[string]interface{}{
		"tokenID":   tokenID,
		"amount":    stakeUSD.String(),
		"side":      "BUY",
		"orderType": "FOK",
		"nonce":     time.Now().UnixNano(),
	}

	signature, err := c.signOrder(order)
	if err != nil {
		return OrderResult{}, fmt.Errorf("signing failed: %w", err)
	}
	order["signature"] = signature

	resp, err := c.post("/order", order)
	if err != nil {
		return OrderResult{}, err
	}

	var result OrderResult
	if err := json.Unmarshal(resp, &result); err != nil {
		return OrderResult{}, fmt.Errorf("parse response: %w", err)
	}
	if result.Error != "" {
		return OrderResult{}, fmt.Errorf("CLOB rejected order: %s", result.Error)
	}

	log.Info().
		Str("order_id", result.OrderID).
		Str("status", result.Status).
		Str("token", shortToken(tokenID)).
		Str("stake", stakeUSD.StringFixed(2)).
		Msg("✅ Order placed")

	return result, nil
}

func (c *Client) signOrder(order map[string]interface{}) (string, error) {
	if c.privateKey == nil {
		return "", fmt.Errorf("private key not loaded")
	}
	orderBytes, _ := json.Marshal(order)
	hash := crypto.Keccak256(orderBytes)
	sig, err := crypto.Sign(hash, c.privateKey)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(sig), nil
}

func (c *Client) post(path string, body interface{}) ([]byte, error) {
	jsonBody, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.addHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

func (c *Client) addHeaders(req *http.Request) {
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	req.Header.Set("POLY_API_KEY", c.apiKey)
	req.Header.Set("POLY_TIMESTAMP", timestamp)
	req.Header.Set("POLY_PASSPHRASE", c.passphrase)

	if c.apiSecret != "" {
		message := timestamp + req.Method + req.URL.Path
		req.Header.Set("POLY_SIGNATURE", c.hmacSign(message))
	}
}

func (c *Client) hmacSign(message string) string {
	hash := crypto.Keccak256([]byte(message + c.apiSecret))
	return hexutil.Encode(hash)
}

func shortToken(tokenID string) string {
	if len(tokenID) > 16 {
		return tokenID[:16] + "..."
	}
	return tokenID
}
