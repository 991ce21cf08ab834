package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"strings"
	"time"
)

// Manual test harness: simulates a field station against a running broker.
// It reports STATUS on an interval and prints every CMD it receives back.
//
// Usage:
//
//	go run test_station_sim.go -server 127.0.0.1:5005 -id 1 -status ready
func main() {
	server := flag.String("server", "127.0.0.1:5005", "Broker address")
	stationID := flag.String("id", "1", "Station identifier")
	status := flag.String("status", "ready", "Status text to report")
	interval := flag.Duration("interval", 5*time.Second, "STATUS report interval")
	flag.Parse()

	addr, err := net.ResolveUDPAddr("udp", *server)
	if err != nil {
		log.Fatalf("Failed to resolve broker address: %v", err)
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		log.Fatalf("Failed to dial broker: %v", err)
	}
	defer conn.Close()

	fmt.Printf("Station %s reporting to %s every %v\n", *stationID, *server, *interval)

	// Periodic STATUS reports
	go func() {
		ticker := time.NewTicker(*interval)
		defer ticker.Stop()

		report := func() {
			msg := fmt.Sprintf("%s;STATUS;%s", *stationID, *status)
			if _, err := conn.Write([]byte(msg)); err != nil {
				log.Printf("Failed to send status: %v", err)
				return
			}
			fmt.Printf("-> %s\n", msg)
		}

		report()
		for range ticker.C {
			report()
		}
	}()

	// Print every datagram the broker forwards to us
	buf := make([]byte, 1024)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			log.Printf("Read error: %v", err)
			continue
		}

		text := string(buf[:n])
		fmt.Printf("<- %s\n", text)

		parts := strings.Split(text, ";")
		if len(parts) >= 3 && parts[1] == "CMD" {
			fmt.Printf("   executing command: %s\n", strings.Join(parts[2:], ";"))
		}
	}
}
