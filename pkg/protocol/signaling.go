package protocol

type RoomID = string

type ConnectionID = string
