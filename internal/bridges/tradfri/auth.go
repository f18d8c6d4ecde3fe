package tradfri

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// bootstrapIdentity is the identity the gateway accepts with its printed
// security code as PSK. It may only be used to register a new identity.
const bootstrapIdentity = "Client_identity"

// identityPrefix prefixes generated client identities.
const identityPrefix = "graylogic-"

// Credentials are a registered identity and its pre-shared key.
type Credentials struct {
	Identity string
	PSK      string
}

// Authenticate registers a new client identity with the gateway using the
// security code printed on the device.
//
// Parameters:
//   - ctx: Bounds the handshake and the registration request
//   - addr: Gateway host:port
//   - securityCode: The code from the gateway's label
//
// Returns:
//   - Credentials: The new identity and its PSK, to be stored
//   - error: ErrAuthenticationFailed, ErrConnectionTimedOut or ErrConnectionFailed
func Authenticate(ctx context.Context, addr, securityCode string) (Credentials, error) {
	return authenticate(ctx, dialDTLS, addr, securityCode, newIdentity())
}

func authenticate(ctx context.Context, dial dialer, addr, securityCode, identity string) (Credentials, error) {
	if securityCode == "" {
		return Credentials{}, fmt.Errorf("%w: security code is required", ErrAuthenticationFailed)
	}

	c, err := dial(ctx, addr, bootstrapIdentity, securityCode)
	if err != nil {
		return Credentials{}, err
	}
	defer c.close() //nolint:errcheck // bootstrap session is discarded

	req, _ := json.Marshal(map[string]string{"9090": identity})
	body, err := c.post(ctx, pathAuthentication, req)
	if err != nil {
		if errors.Is(err, ErrCommandFailed) {
			return Credentials{}, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
		}
		return Credentials{}, err
	}

	var resp struct {
		PSK      string `json:"9091"`
		Firmware string `json:"9029"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return Credentials{}, fmt.Errorf("%w: authentication response: %v", ErrDecodingFailed, err)
	}
	if resp.PSK == "" {
		return Credentials{}, fmt.Errorf("%w: gateway returned no key", ErrAuthenticationFailed)
	}

	return Credentials{Identity: identity, PSK: resp.PSK}, nil
}

func newIdentity() string {
	return identityPrefix + uuid.NewString()
}

// DescribeError returns an operator-facing summary of a gateway error.
func DescribeError(err error) string {
	switch {
	case errors.Is(err, ErrConnectionTimedOut):
		return "could not reach gateway"
	case errors.Is(err, ErrAuthenticationFailed):
		return "could not authenticate"
	case errors.Is(err, ErrConnectionFailed):
		return "could not connect to gateway"
	case errors.Is(err, ErrGatewayNotFound):
		return "no gateway found"
	default:
		return "unknown gateway error"
	}
}
