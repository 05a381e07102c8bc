package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publishes synthetic telemetry in both supported envelope shapes so a
// local backend has something to chew on. Machines drift slowly toward
// their warning bands to exercise the trend engine.
func main() {
	broker := flag.String("broker", "tcp://localhost:1883", "MQTT broker URL")
	machines := flag.Int("machines", 3, "Number of simulated extruders")
	interval := flag.Duration("interval", time.Second, "Publish interval per machine")
	flag.Parse()

	opts := pahomqtt.NewClientOptions().
		AddBroker(*broker).
		SetClientID(fmt.Sprintf("pm-simulator-%06d", rand.Intn(1_000_000)))
	client := pahomqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("connect %s: %v", *broker, token.Error())
	}
	defer client.Disconnect(250)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	log.Printf("publishing telemetry for %d machines to %s", *machines, *broker)
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			drift := now.Sub(start).Minutes()
			for i := 0; i < *machines; i++ {
				publishFactory(client, i, drift)
			}
			// One legacy sensor keeps the old envelope path warm.
			publishLegacy(client, drift)
		}
	}
}

func publishFactory(client pahomqtt.Client, idx int, drift float64) {
	machine := fmt.Sprintf("extruder-%02d", idx+1)
	phase := float64(idx) * 1.3

	payload, _ := json.Marshal(map[string]any{
		"machineId":    machine,
		"timestamp":    time.Now().UTC().Format(time.RFC3339Nano),
		"temperature":  round(65+drift*0.8+3*math.Sin(drift+phase)+rand.Float64()*2, 2),
		"vibration":    round(2.5+drift*0.05+rand.Float64()*0.5, 3),
		"pressure":     round(6+math.Sin(drift/2+phase)+rand.Float64()*0.3, 2),
		"motorCurrent": round(9+drift*0.1+rand.Float64(), 2),
		"wearIndex":    round(math.Min(100, drift*0.5), 1),
		"status":       "running",
		"location":     "hall-2",
	})
	topic := fmt.Sprintf("factory/%s/telemetry", machine)
	client.Publish(topic, 1, false, payload)
}

func publishLegacy(client pahomqtt.Client, drift float64) {
	payload, _ := json.Marshal(map[string]any{
		"sensor_id":   "vib-sensor-legacy",
		"machine_id":  "extruder-01",
		"vibration":   round(2.4+drift*0.05+rand.Float64()*0.4, 3),
		"temperature": round(64+drift*0.7+rand.Float64()*2, 2),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
	client.Publish("sensors/vib-sensor-legacy/telemetry", 1, false, payload)
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
