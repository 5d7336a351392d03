package model

type VehicleRef struct {
	ID      string `json:"id"`
	Plate   string `json:"plate"`
	Model   string `json:"model"`
	Blocked bool   `json:"blocked"`
}

// StatusLabel is the user-facing lock status of the vehicle.
func (v VehicleRef) StatusLabel() string {
	if v.Blocked {
		return "Bloqueado"
	}
	return "Desbloqueado"
}

type Identity struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	Vehicles      []VehicleRef `json:"vehicles"`
	GreetingShown bool         `json:"greetingShown"`
}

func (i *Identity) VehicleByID(id string) (VehicleRef, bool) {
	for _, v := range i.Vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return VehicleRef{}, false
}

// SetBlocked updates the cached blocked flag of the vehicle with the given id.
func (i *Identity) SetBlocked(id string, blocked bool) {
	for idx := range i.Vehicles {
		if i.Vehicles[idx].ID == id {
			i.Vehicles[idx].Blocked = blocked
		}
	}
}

func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	if i.Vehicles != nil {
		c.Vehicles = make([]VehicleRef, len(i.Vehicles))
		copy(c.Vehicles, i.Vehicles)
	}
	return &c
}

type Location struct {
	Address    string  `json:"address"`
	Speed      float64 `json:"speed"`
	LastUpdate string  `json:"lastUpdate"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
}
