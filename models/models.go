package models

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{
		&Brand{},
		&Type{},
		&Color{},
		&Material{},
		&WirelessType{},
		&Device{},
		&DeviceInfo{},
		&DeviceImage{},
		&User{},
		&Cart{},
		&CartLine{},
		&DeliveryStatus{},
		&PaymentStatus{},
		&Order{},
		&OrderLine{},
		&Rating{},
	}
}
