// Package deviceconfig provides an HTTP client for an LED controller's
// configuration API.
//
// A controller in setup mode runs its own access point and serves a small
// JSON API, by default under http://192.168.168.1/v1/. The configuration is
// a single document of named sections (wifi, led, mqtt, http, misc) that is
// read whole and updated partially.
//
// # Usage Example
//
//	client, err := deviceconfig.NewClient("http://192.168.168.1/v1/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	doc, err := client.GetConfig(ctx)
//	if err != nil {
//	    log.Fatal(deviceconfig.GetShortErrorMessage(err))
//	}
//	fmt.Println(doc.Section("mqtt").String("host"))
//
//	err = client.UpdateConfig(ctx, deviceconfig.Document{
//	    "mqtt": {"host": "broker.local", "enabled": true},
//	})
//
// # Endpoints
//
//   - GET config: whole document
//   - PUT config: partial update, merged per section
//   - GET wifi/scan: access points in range
//   - POST ledstrip/test (PUT test on legacy firmware): light the strip
//   - GET done_config: leave setup mode
//
// # Error Handling
//
// Every operation returns a *DeviceError classified by ErrorType. Failed
// requests whose body is {"message": "..."} carry that message. Only GET
// requests are retried, with exponential backoff, and only when MaxRetries
// is set.
package deviceconfig
