package cmd

// DefaultEnvFilename is the dotenv file loaded from the working directory when --env-file is not set.
const DefaultEnvFilename = ".env"

// DefaultManifestFilename is the collected manifest written by the link, scrape and collect commands.
const DefaultManifestFilename = "manganis-manifest.json"

// DefaultOutputDirectory is where the bundle and build commands materialize assets.
const DefaultOutputDirectory = "assets"

// DefaultTailwindFilename is the generated stylesheet written inside the output directory.
const DefaultTailwindFilename = "tailwind.css"
