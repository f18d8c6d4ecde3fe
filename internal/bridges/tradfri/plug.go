package tradfri

import "context"

// SmartPlug is a switchable outlet.
type SmartPlug struct {
	device
	on *Property[bool]
}

// NewSmartPlug builds a plug model for acc.
func NewSmartPlug(svc Services, acc *Accessory) *SmartPlug {
	p := &SmartPlug{}
	p.setup(p, svc, acc, KindSmartPlug, "SmartPlug", "OnOffSwitch")

	id := acc.ID
	p.on = add(&p.device, NewProperty(PropertyOn, onOffMetadata("Whether the plug is on"),
		func(ctx context.Context, v bool) error {
			return svc.Commander.SetPlugOnOff(ctx, id, v)
		}))
	return p
}

// Refresh implements Device.
func (p *SmartPlug) Refresh(acc *Accessory) {
	plug, ok := acc.firstPlug()
	if !ok {
		return
	}
	p.on.update(plug.OnOff)
}
