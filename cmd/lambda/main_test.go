package main

import (
	"context"
	"os"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMakeHandler(t *testing.T) {
	Convey("Given the lambda handler", t, func() {
		ctx := context.Background()

		Convey("When the configuration is valid", func() {
			handler, err := makeHandler(ctx)
			So(err, ShouldBeNil)

			resp, err := handler(ctx, events.APIGatewayV2HTTPRequest{
				RawPath: "/moments",
				RequestContext: events.APIGatewayV2HTTPRequestContext{
					HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
						Method: "OPTIONS",
						Path:   "/moments",
					},
				},
			})

			Convey("Then a preflight is answered with CORS headers", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, 200)
				So(resp.Headers["Access-Control-Allow-Origin"], ShouldEqual, "*")
			})
		})

		Convey("When the configuration is invalid", func() {
			_ = os.Setenv("MOMENTS_TRACING_EXPORTER", "jaeger")
			defer func() { _ = os.Unsetenv("MOMENTS_TRACING_EXPORTER") }()

			_, err := makeHandler(ctx)

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
