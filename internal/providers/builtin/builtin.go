// Package builtin lists the providers shipped with the service.
package builtin

import (
	"github.com/dropDatabas3/hellojohn-connect/internal/providers"
	"github.com/dropDatabas3/hellojohn-connect/internal/providers/google"
	"github.com/dropDatabas3/hellojohn-connect/internal/providers/hubspot"
	"github.com/dropDatabas3/hellojohn-connect/internal/providers/mailchimp"
	"github.com/dropDatabas3/hellojohn-connect/internal/providers/microsoft"
	"github.com/dropDatabas3/hellojohn-connect/internal/providers/salesforce"
)

// Descriptors returns every built-in provider keyed by id.
func Descriptors() map[string]providers.Descriptor {
	all := []providers.Descriptor{
		google.Descriptor(),
		hubspot.Descriptor(),
		mailchimp.Descriptor(),
		microsoft.Descriptor(),
		salesforce.Descriptor(),
	}
	out := make(map[string]providers.Descriptor, len(all))
	for _, d := range all {
		out[d.ID] = d
	}
	return out
}
