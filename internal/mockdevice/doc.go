// Package mockdevice emulates an LED controller's REST API.
//
// A Device holds the controller state: the configuration document with the
// firmware's defaults, the access points its radio sees and a record of
// strip tests. Server exposes it over HTTP with chi, using the same routes
// as the firmware:
//
//	GET  /v1/config          whole configuration document
//	PUT  /v1/config          merge a partial document
//	GET  /v1/wifi/scan       {"access-points": [...]}
//	POST /v1/ledstrip/test   test the strip with unsaved settings
//	PUT  /v1/test            same, legacy firmware
//	GET  /v1/done_config     mark setup complete
//
// Errors are reported as {"message": "..."} with status 400, as the
// firmware does. Writing wifi.ssid simulates a connection attempt: the
// outcome appears in wifi.status_raw on the next GET.
//
// The mock backs ledsetup-mock for manual testing and the wizard's tests,
// which run it behind httptest.
package mockdevice
