package mplcore

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// PluginType is the borsh variant index of a plugin.
type PluginType uint8

const PluginFreezeDelegate PluginType = 1

// FreezeDelegate holds the frozen flag of an asset.
type FreezeDelegate struct {
	Frozen bool
}

// Plugin is a typed plugin payload. Only FreezeDelegate is supported.
type Plugin struct {
	FreezeDelegate *FreezeDelegate
}

func FreezeDelegatePlugin(frozen bool) Plugin {
	return Plugin{FreezeDelegate: &FreezeDelegate{Frozen: frozen}}
}

func (p Plugin) Type() (PluginType, error) {
	if p.FreezeDelegate != nil {
		return PluginFreezeDelegate, nil
	}
	return 0, fmt.Errorf("%w: empty plugin", ErrMalformedInstruction)
}

func (p Plugin) encode(enc *bin.Encoder) error {
	typ, err := p.Type()
	if err != nil {
		return err
	}
	if err := enc.WriteUint8(uint8(typ)); err != nil {
		return err
	}
	return enc.WriteBool(p.FreezeDelegate.Frozen)
}

func decodePlugin(dec *bin.Decoder) (Plugin, error) {
	typ, err := dec.ReadUint8()
	if err != nil {
		return Plugin{}, fmt.Errorf("%w: plugin type: %v", ErrMalformedInstruction, err)
	}
	switch PluginType(typ) {
	case PluginFreezeDelegate:
		frozen, err := dec.ReadBool()
		if err != nil {
			return Plugin{}, fmt.Errorf("%w: frozen flag: %v", ErrMalformedInstruction, err)
		}
		return FreezeDelegatePlugin(frozen), nil
	default:
		return Plugin{}, fmt.Errorf("%w: unsupported plugin type %d", ErrMalformedInstruction, typ)
	}
}
