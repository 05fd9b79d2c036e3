package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/gateway"
	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/notify"
	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/order"
)

// notifyprobe connects to the broker as one user and dumps every order
// notification it receives. Handy for checking an endpoint and topic without
// running the full daemon.
func main() {
	endpoint := flag.String("endpoint", "ws://localhost:8080/ws-notifications", "broker websocket endpoint")
	userID := flag.String("user", "", "user id to subscribe for (required)")
	topicPrefix := flag.String("topicPrefix", notify.DefaultTopicPrefix, "notification topic prefix")
	flag.Parse()

	if *userID == "" {
		log.Fatal("-user is required")
	}

	client := gateway.NewClient(gateway.Options{Endpoint: *endpoint}, gateway.Events{})
	sub := notify.NewSubscriber(*topicPrefix, *userID, client, onMessage, nil)

	client.SetEvents(gateway.Events{
		OnConnect: func() {
			log.Printf("connected to %s", *endpoint)
			sub.HandleConnect()
			log.Printf("subscribed to %s", sub.Topic())
		},
		OnStompError: func(msg string) {
			log.Printf("STOMP error: %s", msg)
		},
		OnTransportError: func(err error) {
			log.Printf("transport error: %v", err)
		},
		OnDisconnect: func() {
			log.Printf("disconnected, reconnecting")
			sub.HandleDisconnect()
		},
	})
	client.Activate()
	defer client.Deactivate()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

func onMessage(body []byte) {
	o, err := notify.Decode(body)
	if err != nil {
		log.Printf("undecodable notification: %v (%d bytes)", err, len(body))
		return
	}
	printOrder(o)
}

func printOrder(o order.Order) {
	known := ""
	if !o.Status.Known() {
		known = " (unrecognized status)"
	}
	log.Printf("%s order %s buyer=%s status=%s%s items=%d date=%s",
		time.Now().Format(time.RFC3339), o.ID, o.BuyerID, o.Status, known, len(o.Items), o.Date)
}
