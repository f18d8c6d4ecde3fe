package tradfri

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	piondtls "github.com/pion/dtls/v2"
	coapdtls "github.com/plgd-dev/go-coap/v3/dtls"
	"github.com/plgd-dev/go-coap/v3/message"
	"github.com/plgd-dev/go-coap/v3/message/codes"
	"github.com/plgd-dev/go-coap/v3/message/pool"
	udpclient "github.com/plgd-dev/go-coap/v3/udp/client"
)

// coapConn is the CoAP session the Client talks through.
type coapConn interface {
	get(ctx context.Context, path string) ([]byte, error)
	put(ctx context.Context, path string, body []byte) error
	post(ctx context.Context, path string, body []byte) ([]byte, error)

	// observe registers fn for every notification on path. The returned
	// function cancels the observation.
	observe(ctx context.Context, path string, fn func([]byte)) (func(), error)

	done() <-chan struct{}
	close() error
}

// dialer opens a DTLS-PSK session to addr.
type dialer func(ctx context.Context, addr, identity, psk string) (coapConn, error)

// dialDTLS is the production dialer.
func dialDTLS(ctx context.Context, addr, identity, psk string) (coapConn, error) {
	cfg := &piondtls.Config{
		PSK: func([]byte) ([]byte, error) {
			return []byte(psk), nil
		},
		PSKIdentityHint: []byte(identity),
		CipherSuites:    []piondtls.CipherSuiteID{piondtls.TLS_PSK_WITH_AES_128_CCM_8},
		ConnectContextMaker: func() (context.Context, func()) {
			return context.WithCancel(ctx)
		},
	}

	co, err := coapdtls.Dial(addr, cfg)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return nil, fmt.Errorf("%w: %s: %v", ErrConnectionTimedOut, addr, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrConnectionFailed, addr, err)
	}
	return &dtlsConn{co: co}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// dtlsConn adapts a go-coap DTLS connection.
type dtlsConn struct {
	co *udpclient.Conn
}

func (c *dtlsConn) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.co.Get(ctx, path)
	if err != nil {
		return nil, requestError(ctx, "GET", path, err)
	}
	return readResponse("GET", path, resp, codes.Content)
}

func (c *dtlsConn) put(ctx context.Context, path string, body []byte) error {
	resp, err := c.co.Put(ctx, path, message.AppJSON, bytes.NewReader(body))
	if err != nil {
		return requestError(ctx, "PUT", path, err)
	}
	_, err = readResponse("PUT", path, resp, codes.Changed, codes.Content)
	return err
}

func (c *dtlsConn) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	resp, err := c.co.Post(ctx, path, message.AppJSON, bytes.NewReader(body))
	if err != nil {
		return nil, requestError(ctx, "POST", path, err)
	}
	return readResponse("POST", path, resp, codes.Created, codes.Changed, codes.Content)
}

func (c *dtlsConn) observe(ctx context.Context, path string, fn func([]byte)) (func(), error) {
	obs, err := c.co.Observe(ctx, path, func(msg *pool.Message) {
		if msg.Code() != codes.Content {
			return
		}
		body, err := msg.ReadBody()
		if err != nil || len(body) == 0 {
			return
		}
		fn(body)
	})
	if err != nil {
		return nil, requestError(ctx, "OBSERVE", path, err)
	}
	return func() {
		cancelCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = obs.Cancel(cancelCtx)
	}, nil
}

func (c *dtlsConn) done() <-chan struct{} {
	return c.co.Done()
}

func (c *dtlsConn) close() error {
	return c.co.Close()
}

func requestError(ctx context.Context, method, path string, err error) error {
	if ctx.Err() != nil || isTimeout(err) {
		return fmt.Errorf("%w: %s %s: %v", ErrConnectionTimedOut, method, path, err)
	}
	return fmt.Errorf("%w: %s %s: %v", ErrCommandFailed, method, path, err)
}

func readResponse(method, path string, resp *pool.Message, ok ...codes.Code) ([]byte, error) {
	code := resp.Code()
	for _, c := range ok {
		if code == c {
			body, err := resp.ReadBody()
			if err != nil {
				return nil, fmt.Errorf("%w: %s %s: reading body: %v", ErrDecodingFailed, method, path, err)
			}
			return body, nil
		}
	}
	return nil, codeError(method, path, code)
}

// codeError maps a CoAP response code to a package error.
func codeError(method, path string, code codes.Code) error {
	switch code {
	case codes.Unauthorized, codes.Forbidden:
		return fmt.Errorf("%w: %s %s: %v", ErrAuthenticationFailed, method, path, code)
	case codes.NotFound:
		return fmt.Errorf("%w: %s %s: %v", ErrDeviceNotFound, method, path, code)
	default:
		return fmt.Errorf("%w: %s %s: %v", ErrCommandFailed, method, path, code)
	}
}
