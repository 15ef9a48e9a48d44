package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// SyncPayClient implements Gateway against the SyncPay partner API.
// SyncPay uses short-lived bearer tokens; the client refreshes them with a
// one minute safety margin. Amounts are sent in major units (reais).
type SyncPayClient struct {
	AuthURL        string
	CashinURL      string
	TransactionURL string
	ClientID       string
	ClientSecret   string

	client *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewSyncPayClient(authURL, cashinURL, transactionURL, clientID, clientSecret string) *SyncPayClient {
	return &SyncPayClient{
		AuthURL:        authURL,
		CashinURL:      cashinURL,
		TransactionURL: transactionURL,
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		client:         &http.Client{Timeout: 20 * time.Second},
	}
}

type syncPayAuthReq struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type syncPayAuthResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (s *SyncPayClient) bearerToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && time.Now().Before(s.expiresAt) {
		return s.token, nil
	}
	if s.ClientID == "" || s.ClientSecret == "" {
		return "", &ConfigurationError{Reason: "SYNCPAY_CLIENT_ID or SYNCPAY_CLIENT_SECRET not set"}
	}
	body, _ := json.Marshal(syncPayAuthReq{ClientID: s.ClientID, ClientSecret: s.ClientSecret})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.AuthURL, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Op: "auth", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return "", &Error{Op: "auth", Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Op: "auth", StatusCode: resp.StatusCode, Body: truncate(respBody, 500)}
	}
	var out syncPayAuthResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", &ProtocolError{Reason: "undecodable auth response"}
	}
	if out.AccessToken == "" {
		return "", &ProtocolError{Reason: "auth response carried no access_token"}
	}
	expiresIn := out.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}
	s.token = out.AccessToken
	s.expiresAt = time.Now().Add(time.Duration(expiresIn-60) * time.Second)
	log.Printf("[SyncPay] token refreshed, expires at %s", s.expiresAt.Format(time.RFC3339))
	return s.token, nil
}

type syncPayCashinReq struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	ReferenceID string  `json:"reference_id"`
}

type syncPayCashinResp struct {
	TransactionID string `json:"transaction_id"`
	ID            string `json:"id"`
	PixCode       string `json:"pix_code"`
	QRCode        string `json:"qr_code"`
	QRCodeBase64  string `json:"qr_code_base64"`
	Status        string `json:"status"`
}

func (s *SyncPayClient) CreateCharge(ctx context.Context, amount decimal.Decimal, reference string) (*Charge, error) {
	if err := checkMinimum(amount); err != nil {
		return nil, err
	}
	token, err := s.bearerToken(ctx)
	if err != nil {
		return nil, err
	}
	payload := syncPayCashinReq{
		Amount:      amount.InexactFloat64(),
		Description: clampDescription(reference),
		ReferenceID: reference,
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.CashinURL, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Op: "create charge", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	log.Printf("[SyncPay] POST cashin reference=%s amount=%s", reference, amount.StringFixed(2))
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &Error{Op: "create charge", Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("[SyncPay] cashin failed status=%d body=%s", resp.StatusCode, truncate(respBody, 500))
		return nil, &Error{Op: "create charge", StatusCode: resp.StatusCode, Body: truncate(respBody, 500)}
	}
	var out syncPayCashinResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &ProtocolError{Reason: "undecodable cashin response"}
	}
	code := out.PixCode
	if code == "" {
		code = out.QRCode
	}
	if code == "" {
		return nil, &ProtocolError{Reason: "provider returned no pix code"}
	}
	txID := out.TransactionID
	if txID == "" {
		txID = out.ID
	}
	return &Charge{ChargeCode: code, TransactionID: txID, QRBase64: out.QRCodeBase64}, nil
}

type syncPayTransactionResp struct {
	Status string `json:"status"`
}

func (s *SyncPayClient) GetStatus(ctx context.Context, transactionID string) (Status, error) {
	token, err := s.bearerToken(ctx)
	if err != nil {
		return StatusUnknown, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.TransactionURL+"/"+transactionID, nil)
	if err != nil {
		return StatusUnknown, &Error{Op: "get status", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.client.Do(req)
	if err != nil {
		return StatusUnknown, &Error{Op: "get status", Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return StatusUnknown, &Error{Op: "get status", StatusCode: resp.StatusCode, Body: truncate(respBody, 500)}
	}
	var out syncPayTransactionResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return StatusUnknown, &Error{Op: "get status", Err: err}
	}
	return ParseStatus(out.Status), nil
}

// SyncPay rejects descriptions over 90 characters.
func clampDescription(desc string) string {
	if len(desc) > 90 {
		return desc[:90]
	}
	return desc
}
