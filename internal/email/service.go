package email

import (
	"context"
)

type Service interface {
	// SendAppointmentCancellation notifies a patient that the doctor
	// cancelled the availability block their appointment belonged to.
	SendAppointmentCancellation(ctx context.Context, to, patientName, doctorName, location, formattedTime string) error
	SendPasswordReset(ctx context.Context, to, token string) error
	SendCustom(ctx context.Context, to, subject, content string) error
}
