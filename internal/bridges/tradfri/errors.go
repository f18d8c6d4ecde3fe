package tradfri

import "errors"

// Domain errors for the TRÅDFRI bridge package.
var (
	// ErrNotConnected is returned when a gateway operation runs before Connect.
	ErrNotConnected = errors.New("tradfri: not connected to gateway")

	// ErrConnectionFailed is returned when the DTLS session cannot be set up.
	ErrConnectionFailed = errors.New("tradfri: connection to gateway failed")

	// ErrAuthenticationFailed is returned when the gateway rejects the
	// security code or a stored identity.
	ErrAuthenticationFailed = errors.New("tradfri: authentication failed")

	// ErrConnectionTimedOut is returned when the gateway does not answer in time.
	ErrConnectionTimedOut = errors.New("tradfri: connection timed out")

	// ErrGatewayNotFound is returned when discovery finds no gateway.
	ErrGatewayNotFound = errors.New("tradfri: no gateway found")

	// ErrUnsupportedAccessory wraps the reason an accessory cannot be classified.
	ErrUnsupportedAccessory = errors.New("tradfri: unsupported accessory")

	// ErrInvalidValue is returned when a property write has the wrong type or format.
	ErrInvalidValue = errors.New("tradfri: invalid property value")

	// ErrOutOfRange is returned when a numeric property write is outside [min, max].
	ErrOutOfRange = errors.New("tradfri: property value out of range")

	// ErrReadOnly is returned when writing a read-only property.
	ErrReadOnly = errors.New("tradfri: property is read-only")

	// ErrDeviceNotFound is returned when no device has the requested id.
	ErrDeviceNotFound = errors.New("tradfri: device not found")

	// ErrPropertyNotFound is returned when a device has no property of that name.
	ErrPropertyNotFound = errors.New("tradfri: property not found")

	// ErrDecodingFailed is returned when a gateway payload cannot be decoded.
	ErrDecodingFailed = errors.New("tradfri: decoding failed")

	// ErrCredentialsNotFound is returned when no identity is stored for a gateway.
	ErrCredentialsNotFound = errors.New("tradfri: no stored credentials")

	// ErrCommandFailed is returned when the gateway rejects a command.
	ErrCommandFailed = errors.New("tradfri: command failed")
)
