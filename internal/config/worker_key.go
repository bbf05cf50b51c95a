package config

type WorkerKeyStruct struct {
	PasscodeEventsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PasscodeEventsQueue: "passcode_events_queue",
}
