package systemd

import (
	"context"
	"fmt"

	sysdbus "github.com/coreos/go-systemd/v22/dbus"
)

// BluezUnit is the system service exporting the BlueZ objects.
const BluezUnit = "bluetooth.service"

type UnitState struct {
	Name        string `json:"name"`
	ActiveState string `json:"active_state"`
	SubState    string `json:"sub_state"`
}

func (u UnitState) Active() bool {
	return u.ActiveState == "active"
}

type unitPropertyGetter interface {
	GetUnitPropertyContext(ctx context.Context, unit string, propertyName string) (*sysdbus.Property, error)
}

// BluezState asks systemd for the state of the bluetooth service.
func BluezState(ctx context.Context) (*UnitState, error) {
	conn, err := sysdbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return unitState(ctx, conn, BluezUnit)
}

func unitState(ctx context.Context, conn unitPropertyGetter, name string) (*UnitState, error) {
	state := UnitState{Name: name}
	for prop, dst := range map[string]*string{
		"ActiveState": &state.ActiveState,
		"SubState":    &state.SubState,
	} {
		p, err := conn.GetUnitPropertyContext(ctx, name, prop)
		if err != nil {
			return nil, err
		}
		s, ok := p.Value.Value().(string)
		if !ok {
			return nil, fmt.Errorf("systemd: %s.%s is %s, want string", name, prop, p.Value.Signature())
		}
		*dst = s
	}
	return &state, nil
}
