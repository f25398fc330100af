package config

import "errors"

var (
	errMissingKafkaBrokers = errors.New("kafka provider requires kafka_brokers")
	errMissingNATSURL      = errors.New("nats provider requires nats_url")
	errMissingRedisAddr    = errors.New("redis provider requires redis_addr")
	errMissingGatewayURL   = errors.New("websocket provider requires gateway_url")
)
