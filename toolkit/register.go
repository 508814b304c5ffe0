package toolkit

import (
	"log/slog"
	"net/http"

	"github.com/promptfile/promptfile/tooling/registry"
)

// RegisterAll registers every bundled tool under its canonical name.
func RegisterAll(reg *registry.Registry, client *http.Client, logger *slog.Logger) error {
	descriptors := []registry.Descriptor{
		Webscrape(client, logger),
		ClientRevenue(nil),
	}
	for _, descriptor := range descriptors {
		if err := reg.Register(descriptor); err != nil {
			return err
		}
	}
	return nil
}
