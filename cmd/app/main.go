// @title CT400 Service API
// @version 1.0.0
// @description API для работы с оптическим анализатором Yenista CT400 и отправки результатов в Kafka.
// @host localhost:8082
// @BasePath /api/v1
package main

import "github.com/iwtcode/ct400Adapter/internal/app"

func main() {
	// Создаем и запускаем новый экземпляр приложения fx
	app.New().Run()
}
