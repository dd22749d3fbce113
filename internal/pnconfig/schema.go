// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pnconfig

const configSchema = `{
    "type": "object",
    "description": "Configuration for the pnbridge process-image egress bridge.",
    "properties": {
        "ethInterface": {
            "description": "Ethernet interface the fieldbus stack binds to.",
            "type": "string"
        },
        "stationName": {
            "description": "Fieldbus station name advertised to the controller.",
            "type": "string"
        },
        "lineName": {
            "description": "Line name tag attached to every emitted measurement.",
            "type": "string"
        },
        "controllerName": {
            "description": "Controller name tag attached to every emitted measurement.",
            "type": "string"
        },
        "programName": {
            "description": "Program name tag attached to every emitted measurement.",
            "type": "string"
        },
        "prefix": {
            "description": "Prefix prepended to every measurement name and topic.",
            "type": "string"
        },
        "tickIntervalUs": {
            "description": "Sampler tick period in microseconds. Must be >= the fieldbus stack's minimum cycle time.",
            "type": "integer",
            "minimum": 1
        },
        "influx": {
            "description": "Line-protocol UDP sink. influxPort=0 disables the sink.",
            "type": "object",
            "properties": {
                "host": { "type": "string" },
                "port": { "type": "integer", "minimum": 0, "maximum": 65535 },
                "maxPacketSize": { "type": "integer", "minimum": 0 }
            }
        },
        "pubsub": {
            "description": "Topic pub/sub sink, carried over NATS. zmqPort=0 (address empty) disables the sink.",
            "type": "object",
            "properties": {
                "address": { "type": "string" },
                "username": { "type": "string" },
                "password": { "type": "string" },
                "credsFilePath": { "type": "string" }
            }
        },
        "health": {
            "description": "HTTP health/metrics surface.",
            "type": "object",
            "properties": {
                "listenAddress": { "type": "string" }
            }
        },
        "logLevel": {
            "description": "One of debug, info, warn, err, crit.",
            "type": "string"
        },
        "logDateTime": {
            "description": "Prefix log lines with a timestamp instead of relying on systemd.",
            "type": "boolean"
        }
    }
}`
