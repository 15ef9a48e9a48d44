package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// PushinPayClient implements Gateway against the PushinPay PIX API.
// PushinPay takes amounts in centavos and returns the copy-and-paste code
// plus an optional pre-rendered QR image.
type PushinPayClient struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

func NewPushinPayClient(baseURL, apiKey string) *PushinPayClient {
	if baseURL == "" {
		baseURL = "https://api.pushinpay.com.br/api"
	}
	return &PushinPayClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		client:  &http.Client{Timeout: 20 * time.Second},
	}
}

type pushinPayCashInReq struct {
	Value int64 `json:"value"`
}

type pushinPayCashInResp struct {
	ID           string `json:"id"`
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
	Status       string `json:"status"`
	Value        int64  `json:"value"`
}

func (p *PushinPayClient) CreateCharge(ctx context.Context, amount decimal.Decimal, reference string) (*Charge, error) {
	if p.APIKey == "" {
		return nil, &ConfigurationError{Reason: "PUSHINPAY_API_KEY not set"}
	}
	if err := checkMinimum(amount); err != nil {
		return nil, err
	}
	cents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	body, _ := json.Marshal(pushinPayCashInReq{Value: cents})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/pix/cashIn", bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Op: "create charge", Err: err}
	}
	p.setHeaders(req)

	log.Printf("[PushinPay] POST /pix/cashIn reference=%s value=%d", reference, cents)
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &Error{Op: "create charge", Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("[PushinPay] cashIn failed status=%d body=%s", resp.StatusCode, truncate(respBody, 500))
		return nil, &Error{Op: "create charge", StatusCode: resp.StatusCode, Body: truncate(respBody, 500)}
	}
	var out pushinPayCashInResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &ProtocolError{Reason: fmt.Sprintf("undecodable cashIn response: %v", err)}
	}
	if out.QRCode == "" {
		return nil, &ProtocolError{Reason: "provider returned no pix code"}
	}
	return &Charge{
		ChargeCode:    out.QRCode,
		TransactionID: out.ID,
		QRBase64:      out.QRCodeBase64,
	}, nil
}

type pushinPayTransactionResp struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (p *PushinPayClient) GetStatus(ctx context.Context, transactionID string) (Status, error) {
	if p.APIKey == "" {
		return StatusUnknown, &ConfigurationError{Reason: "PUSHINPAY_API_KEY not set"}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/transactions/"+transactionID, nil)
	if err != nil {
		return StatusUnknown, &Error{Op: "get status", Err: err}
	}
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return StatusUnknown, &Error{Op: "get status", Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return StatusUnknown, &Error{Op: "get status", StatusCode: resp.StatusCode, Body: truncate(respBody, 500)}
	}
	var out pushinPayTransactionResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return StatusUnknown, &Error{Op: "get status", Err: err}
	}
	return ParseStatus(out.Status), nil
}

func (p *PushinPayClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
