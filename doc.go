// Package vatkit validates European VAT identification numbers.
//
// The validation core lives in pkg/vat: an offline format check against a per
// country pattern table and an existence check against a registry, by default
// the EU VIES service from pkg/vies. This package wires both into a runnable
// service:
//
//	cfg, err := vatkit.LoadConfig()
//	if err != nil {
//	    return err
//	}
//
//	app, err := vatkit.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer app.Close()
//
//	ok, err := app.Validator.ValidateVATNumber(ctx, "NL123456789B01")
//
// App.Run serves the HTTP API from pkg/vatapi until the context is cancelled.
package vatkit
