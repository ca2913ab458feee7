package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foodfriend/foodfriend/internal/server"
	"github.com/foodfriend/foodfriend/internal/utils"
	"github.com/foodfriend/foodfriend/pkg/ai"
	"github.com/foodfriend/foodfriend/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local development backend",
	Long: `Runs a local backend that speaks the same HTTP API as the FoodFriend analysis service,
backed by a SQLite database. Photo analysis needs ai.api_key (or OPENAI_API_KEY); photos are
archived to S3 when s3.endpoint is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		listen := viper.GetString("server.listen")
		dbPath, err := utils.GetAbsDBPath(viper.GetString("server.dbpath"))
		if err != nil {
			return err
		}

		// One server per database file.
		lock, err := utils.NewFileLock(dbPath)
		if err != nil {
			return err
		}
		if err := lock.Lock(); err != nil {
			return err
		}
		defer lock.Unlock()

		db, err := storage.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		utils.Log.Infof("Using database %s", dbPath)

		var analyzer ai.Analyzer
		if key := viper.GetString("ai.api_key"); key != "" {
			analyzer, err = ai.NewAnalyzer(ai.Config{
				Provider: viper.GetString("ai.provider"),
				APIKey:   key,
				Model:    viper.GetString("ai.model"),
				Endpoint: viper.GetString("ai.endpoint"),
			})
			if err != nil {
				return err
			}
		} else {
			utils.Log.Warn("ai.api_key is not set, photo analysis endpoints will answer 503")
		}

		var images storage.ImageStore
		if endpoint := viper.GetString("s3.endpoint"); endpoint != "" {
			s3, err := storage.NewS3Images(storage.S3Config{
				Endpoint:  endpoint,
				AccessKey: viper.GetString("s3.access_key"),
				SecretKey: viper.GetString("s3.secret_key"),
				Bucket:    viper.GetString("s3.bucket"),
				Region:    viper.GetString("s3.region"),
				UseSSL:    viper.GetBool("s3.use_ssl"),
			})
			if err != nil {
				return err
			}
			if err := s3.EnsureBucket(cmd.Context()); err != nil {
				return err
			}
			images = s3
		}

		srv := server.New(db, analyzer, images, viper.GetString("auth.jwt_secret"))
		return srv.Start(cmd.Context(), listen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8000", "Address to listen on")
	serveCmd.Flags().String("dbpath", "", "Path to the SQLite database (default ~/.config/foodfriend/foodfriend.sqlite)")
	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("server.dbpath", serveCmd.Flags().Lookup("dbpath"))
}
