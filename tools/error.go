package tools

// PanicOnErr 仅用于启动阶段，初始化失败直接退出
func PanicOnErr(err error) {
	if err != nil {
		panic(err)
	}
}
