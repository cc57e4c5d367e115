package models

// Envelope wraps every API response: status 1 on success, 0 on failure.
type Envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(message string, data interface{}) Envelope {
	return Envelope{Status: 1, Message: message, Data: data}
}

func Failure(message string, data interface{}) Envelope {
	return Envelope{Status: 0, Message: message, Data: data}
}
