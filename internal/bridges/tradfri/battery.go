package tradfri

// BatteryDevice is a battery-powered accessory the bridge cannot control,
// such as a remote or motion sensor. It only reports its charge.
type BatteryDevice struct {
	device
	level *Property[int]
}

// NewBatteryDevice builds a battery model for acc.
func NewBatteryDevice(svc Services, acc *Accessory) *BatteryDevice {
	b := &BatteryDevice{}
	b.setup(b, svc, acc, KindBatteryDevice, "MultiLevelSensor")

	b.level = add(&b.device, NewProperty[int](PropertyBatteryLevel, Metadata{
		SemanticType: "LevelProperty",
		Type:         ValueTypeInteger,
		Title:        "Battery",
		Description:  "The battery level of the device",
		Unit:         "%",
		Minimum:      intPtr(0),
		Maximum:      intPtr(100),
	}, nil))
	return b
}

// Refresh implements Device.
func (b *BatteryDevice) Refresh(acc *Accessory) {
	if acc.DeviceInfo.Battery == nil {
		return
	}
	b.level.update(*acc.DeviceInfo.Battery)
}
