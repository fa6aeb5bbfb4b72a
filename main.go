package main

import (
	"embed"
	"log"
	"os"

	"bma/internal/config"
	"bma/internal/deeplink"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	app := NewApp()

	// Deep link que abriu o processo (Windows/Linux passam a URL como arg)
	if initial := deeplink.InitialURL(os.Args[1:]); initial != "" {
		app.HandleDeepLink(initial)
	}

	err := wails.Run(&options.App{
		Title:            config.AppName,
		Width:            1200,
		Height:           800,
		MinWidth:         900,
		MinHeight:        600,
		BackgroundColour: &options.RGBA{R: 15, G: 20, B: 32, A: 255}, // #0f1420
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.Startup,
		OnDomReady: app.DomReady,
		OnShutdown: app.Shutdown,
		Bind: []interface{}{
			app,
		},
		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId: config.AppBundleID,
			OnSecondInstanceLaunch: func(data options.SecondInstanceData) {
				// Deep links em instância já aberta chegam como segunda instância
				if link := deeplink.InitialURL(data.Args); link != "" {
					app.HandleDeepLink(link)
				}
			},
		},
		Mac: &mac.Options{
			TitleBar: &mac.TitleBar{
				TitlebarAppearsTransparent: true,
				HideTitle:                  true,
				FullSizeContent:            true,
			},
			About: &mac.AboutInfo{
				Title:   config.AppName,
				Message: "BMA 2026 Desktop",
			},
			OnUrlOpen: app.HandleDeepLink,
		},
	})

	if err != nil {
		log.Fatalf("[BMA] Fatal: %v", err)
	}
}
