package mailer

import "context"

// Mailer 抽象外发邮件，目前只用于密码重置链接。
// 发送失败不重试，直接上抛
type Mailer interface {
	Send(ctx context.Context, subject string, to string, htmlBody string) error
}
