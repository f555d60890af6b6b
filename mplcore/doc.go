// Package mplcore is the call surface of the external asset protocol (MPL
// Core) as used by the gateway: its program id, the FreezeDelegate plugin
// payload, the UpdatePluginV1 and UpdateV2 instructions, and the asset and
// collection account layouts.
//
// Only the pieces the gateway touches are modelled. The protocol itself is a
// black box reached through an Invoker.
package mplcore
