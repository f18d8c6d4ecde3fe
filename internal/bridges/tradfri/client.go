package tradfri

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// defaultRequestTimeout bounds a single command round trip.
const defaultRequestTimeout = 5 * time.Second

// Client is a CoAP session with one gateway.
//
// It implements Commander for property writes and AccessorySource for
// snapshot delivery.
//
// Thread Safety:
//   - All methods are safe for concurrent use after Connect.
type Client struct {
	addr           string
	logger         Logger
	metrics        *Metrics
	dial           dialer
	requestTimeout time.Duration

	mu   sync.RWMutex
	conn coapConn
}

// ClientOptions holds configuration for creating a gateway client.
type ClientOptions struct {
	// Address is the gateway host:port. Required.
	Address string

	// Logger is optional.
	Logger Logger

	// Metrics is optional.
	Metrics *Metrics

	// RequestTimeout bounds each command. Default: 5s
	RequestTimeout time.Duration
}

// NewClient creates a gateway client. Call Connect before use.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Address == "" {
		return nil, fmt.Errorf("address is required")
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		addr:           opts.Address,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		dial:           dialDTLS,
		requestTimeout: timeout,
	}, nil
}

// Connect opens the DTLS session with a registered identity.
func (c *Client) Connect(ctx context.Context, creds Credentials) error {
	conn, err := c.dial(ctx, c.addr, creds.Identity, creds.PSK)
	if err != nil {
		return err
	}

	c.mu.Lock()
	old := c.conn
	c.conn = conn
	c.mu.Unlock()

	if old != nil {
		old.close() //nolint:errcheck // replaced session
	}

	c.metrics.SetGatewayConnected(true)
	c.logInfo("connected to gateway", "address", c.addr, "identity", creds.Identity)
	return nil
}

// Close ends the session.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	c.metrics.SetGatewayConnected(false)
	if conn == nil {
		return nil
	}
	return conn.close()
}

// IsConnected reports whether a session is open.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return false
	}
	select {
	case <-conn.done():
		return false
	default:
		return true
	}
}

// Address returns the gateway address.
func (c *Client) Address() string {
	return c.addr
}

func (c *Client) session() (coapConn, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil {
		return nil, ErrNotConnected
	}
	return c.conn, nil
}

// ObserveDevices lists the gateway's accessories, observes each one, and
// calls onUpdate with every decoded snapshot. The device list is observed
// too so newly paired accessories are picked up.
//
// It blocks until ctx is cancelled or the session drops. onUpdate may be
// called from several goroutines at once.
func (c *Client) ObserveDevices(ctx context.Context, onUpdate func(*Accessory)) error {
	conn, err := c.session()
	if err != nil {
		return err
	}

	o := &observer{
		conn:     conn,
		onUpdate: onUpdate,
		logger:   c.logger,
		cancels:  make(map[int]func()),
	}
	defer o.stop()

	listCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	body, err := conn.get(listCtx, pathDevices)
	cancel()
	if err != nil {
		return fmt.Errorf("listing devices: %w", err)
	}
	ids, err := decodeDeviceIDs(body)
	if err != nil {
		return err
	}
	o.sync(ctx, ids)

	stopList, err := conn.observe(ctx, pathDevices, func(body []byte) {
		ids, err := decodeDeviceIDs(body)
		if err != nil {
			c.logWarn("ignoring device list", "error", err)
			return
		}
		o.sync(ctx, ids)
	})
	if err != nil {
		c.logWarn("device list observation failed; new accessories need a restart", "error", err)
	} else {
		defer stopList()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-conn.done():
		c.metrics.SetGatewayConnected(false)
		return fmt.Errorf("%w: session closed", ErrNotConnected)
	}
}

// observer tracks per-accessory observations.
type observer struct {
	conn     coapConn
	onUpdate func(*Accessory)
	logger   Logger

	mu      sync.Mutex
	cancels map[int]func()
	stopped bool
}

// sync starts observing ids not yet observed.
func (o *observer) sync(ctx context.Context, ids []int) {
	for _, id := range ids {
		o.mu.Lock()
		_, seen := o.cancels[id]
		if seen || o.stopped {
			o.mu.Unlock()
			continue
		}
		o.cancels[id] = func() {}
		o.mu.Unlock()

		stop, err := o.conn.observe(ctx, devicePath(id), o.deliver)
		if err != nil {
			if o.logger != nil {
				o.logger.Warn("failed to observe accessory", "accessory_id", id, "error", err)
			}
			o.mu.Lock()
			delete(o.cancels, id)
			o.mu.Unlock()
			continue
		}

		o.mu.Lock()
		if o.stopped {
			o.mu.Unlock()
			stop()
			return
		}
		o.cancels[id] = stop
		o.mu.Unlock()
	}
}

func (o *observer) deliver(body []byte) {
	acc, err := DecodeAccessory(body)
	if err != nil {
		if o.logger != nil {
			o.logger.Warn("ignoring accessory payload", "error", err)
		}
		return
	}
	o.onUpdate(acc)
}

func (o *observer) stop() {
	o.mu.Lock()
	o.stopped = true
	cancels := o.cancels
	o.cancels = make(map[int]func())
	o.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// SetLightOnOff implements Commander.
func (c *Client) SetLightOnOff(ctx context.Context, accessoryID int, on bool) error {
	return c.send(ctx, accessoryID, lightCommand(wireLight{OnOff: boolToInt(on)}))
}

// SetPlugOnOff implements Commander.
func (c *Client) SetPlugOnOff(ctx context.Context, accessoryID int, on bool) error {
	return c.send(ctx, accessoryID, plugCommand(wirePlug{OnOff: boolToInt(on)}))
}

// SetBrightness implements Commander. percent is 0–100.
func (c *Client) SetBrightness(ctx context.Context, accessoryID int, percent int) error {
	return c.send(ctx, accessoryID, lightCommand(wireLight{Dimmer: intPtr(percentToDimmer(percent))}))
}

// SetColor implements Commander. hex is "rrggbb"; it is sent as CIE x/y
// because the gateway only accepts a fixed set of hex presets.
func (c *Client) SetColor(ctx context.Context, accessoryID int, hex string) error {
	x, y, err := hexToXY(hex)
	if err != nil {
		return err
	}
	return c.send(ctx, accessoryID, lightCommand(wireLight{ColorX: &x, ColorY: &y}))
}

// SetColorTemperature implements Commander. percent is 0 (warm) to 100 (cold).
func (c *Client) SetColorTemperature(ctx context.Context, accessoryID int, percent float64) error {
	return c.send(ctx, accessoryID, lightCommand(wireLight{Mireds: intPtr(percentToMireds(percent))}))
}

func (c *Client) send(ctx context.Context, accessoryID int, body []byte) error {
	conn, err := c.session()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	if err := conn.put(ctx, devicePath(accessoryID), body); err != nil {
		return fmt.Errorf("accessory %d: %w", accessoryID, err)
	}
	c.logDebug("sent command", "accessory_id", accessoryID, "payload", string(body))
	return nil
}

func (c *Client) logDebug(msg string, keysAndValues ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, keysAndValues...)
	}
}

func (c *Client) logInfo(msg string, keysAndValues ...any) {
	if c.logger != nil {
		c.logger.Info(msg, keysAndValues...)
	}
}

func (c *Client) logWarn(msg string, keysAndValues ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, keysAndValues...)
	}
}
