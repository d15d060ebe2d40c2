// Package influxdb exports MQTT bridge traffic telemetry to InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Two measurements are
// written:
//   - mqtt_traffic: one point per logged message, tagged by direction and
//     topic, carrying the payload size but never the payload itself
//   - mqtt_connection: connect results and dropped connections per broker
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteTraffic("sent", "test/topic", 24, time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes; failures are
// delivered to the SetOnError callback.
package influxdb
