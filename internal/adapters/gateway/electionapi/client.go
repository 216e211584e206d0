package electionapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/domain"
	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/ports"
)

const (
	requestTimeout = 10 * time.Second
	probeTimeout   = 2 * time.Second
)

// Client talks to the election backend over HTTP and implements
// ports.ElectionGateway. Every failure is translated into the closed
// domain.ErrorKind set before it leaves this package.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func New(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}
}

var _ ports.ElectionGateway = (*Client)(nil)

type loginRequest struct {
	Voucher string `json:"voucher"`
}

func (c *Client) RedeemVoucher(ctx context.Context, voucher string) error {
	return c.do(ctx, http.MethodPost, "/login", loginRequest{Voucher: voucher}, nil, domain.KindAuthRejected)
}

func (c *Client) FetchPositions(ctx context.Context) ([]domain.Position, error) {
	var positions []domain.Position
	// Catalog reads have no meaningful client rejection; anything non-2xx
	// is the server's problem and stays retryable.
	if err := c.do(ctx, http.MethodGet, "/election/positions", nil, &positions, domain.KindServerError); err != nil {
		return nil, err
	}
	return positions, nil
}

type castRequest struct {
	Voucher     string `json:"voucher"`
	PositionID  int    `json:"position_id"`
	CandidateID int    `json:"candidate_id"`
}

type castResponse struct {
	VerificationCode string `json:"verification_code"`
}

func (c *Client) CastVote(ctx context.Context, voucher string, positionID, candidateID int) (string, error) {
	var resp castResponse
	if err := c.do(ctx, http.MethodPost, "/vote", castRequest{
		Voucher:     voucher,
		PositionID:  positionID,
		CandidateID: candidateID,
	}, &resp, domain.KindAuthRejected); err != nil {
		return "", err
	}
	return resp.VerificationCode, nil
}

type verifyRequest struct {
	VerificationCode string `json:"verification_code"`
}

type verifyResponse struct {
	Status string            `json:"status"`
	Vote   domain.VoteRecord `json:"vote"`
}

func (c *Client) VerifyVote(ctx context.Context, code string) (*domain.VoteRecord, error) {
	var resp verifyResponse
	if err := c.do(ctx, http.MethodPost, "/verify", verifyRequest{VerificationCode: code}, &resp, domain.KindNotFound); err != nil {
		return nil, err
	}
	if resp.Status != "found" {
		return nil, &domain.GatewayError{Kind: domain.KindNotFound, Message: "vote not found"}
	}
	return &resp.Vote, nil
}

// Online probes the backend host with a short TCP dial. It gates
// submission; it never triggers retries on its own.
func (c *Client) Online(ctx context.Context) bool {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return false
	}
	host := u.Host
	if u.Port() == "" {
		switch u.Scheme {
		case "https":
			host = net.JoinHostPort(u.Hostname(), "443")
		default:
			host = net.JoinHostPort(u.Hostname(), "80")
		}
	}

	dialer := net.Dialer{Timeout: probeTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", host)
	if err != nil {
		c.logger.Debug("connectivity probe failed", slog.String("host", host), slog.String("error", err.Error()))
		return false
	}
	conn.Close()
	return true
}

// do runs one request and decodes a 2xx body into out when out is non-nil.
// rejected is the error kind a 4xx client rejection means for the calling
// operation (invalid voucher vs. unknown receipt code).
func (c *Client) do(ctx context.Context, method, path string, body, out any, rejected domain.ErrorKind) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts and connection failures are indistinguishable from the
		// voter's point of view: the attempt did not go through.
		return &domain.GatewayError{Kind: domain.KindNetworkError, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return translate(resp, rejected)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// translate is the single mapping from an HTTP response to the closed
// error-kind set. Nothing outside it inspects status codes.
func translate(resp *http.Response, rejected domain.ErrorKind) *domain.GatewayError {
	kind := rejected
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		kind = domain.KindRateLimited
	case resp.StatusCode >= 500:
		kind = domain.KindServerError
	}

	msg := resp.Status
	if raw, err := io.ReadAll(io.LimitReader(resp.Body, 512)); err == nil {
		if s := strings.TrimSpace(string(raw)); s != "" {
			msg = s
		}
	}
	return &domain.GatewayError{Kind: kind, Status: resp.StatusCode, Message: msg}
}
