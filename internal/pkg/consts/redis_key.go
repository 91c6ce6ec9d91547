package consts

const (
	UserSimpleInfoKey = "user:simple:info:"
)

const (
	StatusSweepLock = "status:sweep:lock"
)
