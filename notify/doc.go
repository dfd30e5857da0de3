// Package notify provides Sender implementations for dispatching login
// codes. The core never talks to a mail or SMS provider directly: Queue
// hands the job to the communications service over AMQP, and Writer logs
// codes for development and tests.
package notify
